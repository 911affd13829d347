package emailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Nazarious-ucu/newsletter-api/internal/models"
)

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

var DefaultBreakerConfig = BreakerConfig{
	TimeInterval: 30 * time.Second,
	TimeTimeOut:  15 * time.Second,
	RepeatNumber: 5,
}

type sender interface {
	SendEmail(ctx context.Context, recipient models.SubscriberEmail, subject, htmlContent, textContent string) error
}

// BreakerClient stops calling the provider after RepeatNumber consecutive failures.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped sender
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped sender) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) SendEmail(
	ctx context.Context,
	recipient models.SubscriberEmail,
	subject, htmlContent, textContent string,
) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.wrapped.SendEmail(ctx, recipient, subject, htmlContent, textContent)
	})
	if err != nil {
		return fmt.Errorf("%s unavailable: %w", b.name, err)
	}
	return nil
}
