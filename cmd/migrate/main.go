package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/newsletter-api/internal/config"
	"github.com/Nazarious-ucu/newsletter-api/internal/repository/postgres"
	"github.com/Nazarious-ucu/newsletter-api/migrations"
	"github.com/Nazarious-ucu/newsletter-api/pkg/logger"
)

const migrateTimeout = time.Minute

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
		ServiceName: "newsletter-migrate",
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	if err := run(cfg.Database); err != nil {
		l.Error("migration failed", zap.Error(err))
		_ = l.Sync()
		os.Exit(1)
	}
	l.Info("migrations applied", zap.String("database", cfg.Database.DatabaseName))
	_ = l.Sync()
}

func run(settings config.DatabaseSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := ensureDatabase(ctx, settings); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	db, err := postgres.Open(ctx, settings)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrations.Up(ctx, db)
}

func ensureDatabase(ctx context.Context, settings config.DatabaseSettings) error {
	server, err := sql.Open("postgres", settings.ServerDSN())
	if err != nil {
		return err
	}
	defer server.Close()

	var exists bool
	err = server.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)",
		settings.DatabaseName,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("look up database %s: %w", settings.DatabaseName, err)
	}
	if exists {
		return nil
	}

	_, err = server.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(settings.DatabaseName))
	return err
}
