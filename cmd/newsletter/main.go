package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Nazarious-ucu/newsletter-api/internal/app"
	"github.com/Nazarious-ucu/newsletter-api/internal/config"
	"github.com/Nazarious-ucu/newsletter-api/pkg/logger"
)

// @title Newsletter API
// @version 1.0
// @description API for subscribing to the newsletter
// @host localhost:8000
// @BasePath /
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("%v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	l, err := logger.NewLogger(logger.Options{
		Level:       cfg.Log.Level,
		FilePath:    cfg.Log.FilePath,
		ServiceName: cfg.Log.ServiceName,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(*cfg, l)

	serviceContainer, err := application.Init(ctx)
	if err != nil {
		l.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := application.Start(ctx, serviceContainer); err != nil {
		l.Fatal("application stopped with error", zap.Error(err))
	}
	l.Info("application shutdown successfully")
}
