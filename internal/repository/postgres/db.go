package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/Nazarious-ucu/newsletter-api/internal/config"
)

const driverName = "postgres"

// Open builds the connection pool and pings it once so that an unreachable
// database fails startup instead of the first request.
func Open(ctx context.Context, settings config.DatabaseSettings) (*sql.DB, error) {
	db, err := sql.Open(driverName, settings.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	db.SetMaxOpenConns(settings.MaxOpenConns)
	db.SetMaxIdleConns(settings.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, settings.ConnectTimeout())
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s:%d/%s: %w",
			settings.Host, settings.Port, settings.DatabaseName, err)
	}

	return db, nil
}
