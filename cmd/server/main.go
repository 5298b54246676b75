package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gunvolt24/ticket_service/config"
	"github.com/Gunvolt24/ticket_service/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	// .env.local — только для локального запуска; в контейнере переменные задаёт окружение.
	_ = godotenv.Load(".env.local")

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ticket-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := app.Bootstrap(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer cleanup()

	return application.Run(ctx)
}
