package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/app"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, config.Load())
	if err != nil {
		log.Fatalf("Failed to initialise server: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
}
