package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/farellandr/eventboard/internal/logging"
	"github.com/farellandr/eventboard/internal/server"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Logger.Fatalf("Error loading .env file: %v", err)
	}

	if err := server.Start(); err != nil {
		logging.Logger.Fatalf("Server failed to start: %v", err)
	}
}
