package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"studyhub/internal/db"
	"studyhub/internal/server"
)

func setupSlog() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	setupSlog()

	// .env is optional; real env vars win either way
	godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "studyhub.db"
	}
	database, err := db.Default(dbPath)
	if err != nil {
		slog.Error("database_open_failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(database, os.Getenv("APP_ENV") == "production")

	slog.Info("listening", "port", port)
	if err := http.ListenAndServe(":"+port, srv); err != nil {
		slog.Error("server_start_failed", "error", err)
		os.Exit(1)
	}
}
