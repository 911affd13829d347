package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nazarious-ucu/newsletter-api/internal/models"
)

const insertSubscription = `INSERT INTO subscriptions (id, email, name, subscribed_at) VALUES ($1, $2, $3, $4)`

type insertObserver interface {
	ObserveInsert(start time.Time, err error)
}

// SubscriptionRepository is the storage gateway for the subscriptions table.
type SubscriptionRepository struct {
	DB *sql.DB
	m  insertObserver
}

// NewSubscriptionRepository wires a repository; m may be nil.
func NewSubscriptionRepository(db *sql.DB, m insertObserver) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db, m: m}
}

// Insert stores one row in a single statement. Errors are returned, not logged.
func (r *SubscriptionRepository) Insert(ctx context.Context, sub models.Subscription) error {
	start := time.Now()

	_, err := r.DB.ExecContext(ctx, insertSubscription,
		sub.ID,
		sub.Email.String(),
		sub.Name.String(),
		sub.SubscribedAt,
	)
	if r.m != nil {
		r.m.ObserveInsert(start, err)
	}
	if err != nil {
		return fmt.Errorf("insert subscription %s: %w", sub.ID, err)
	}

	return nil
}
