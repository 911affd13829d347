package subscription

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/newsletter-api/internal/models"
)

const timeoutDuration = 10 * time.Second

type subscriptionStore interface {
	Insert(ctx context.Context, sub models.Subscription) error
}

type recorder interface {
	RecordValidationError()
	RecordSubscriptionCreated()
}

type Handler struct {
	store   subscriptionStore
	log     *zap.Logger
	metrics recorder
	now     func() time.Time
	newID   func() uuid.UUID
	timeout time.Duration
}

type Option func(*Handler)

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(h *Handler) { h.newID = newID }
}

// WithTimeout bounds a single storage insert.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithMetrics(m recorder) Option {
	return func(h *Handler) { h.metrics = m }
}

func NewHandler(store subscriptionStore, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		store:   store,
		log:     logger.With(zap.String("component", "subscription_handler")),
		now:     time.Now,
		newID:   uuid.New,
		timeout: timeoutDuration,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe
// @Summary Subscribe to the newsletter
// @Description Validates the submitted name and email and stores a new subscriber.
// @Tags subscription
// @Accept application/x-www-form-urlencoded
// @Param name formData string true "Subscriber name"
// @Param email formData string true "Subscriber email address"
// @Success 201
// @Failure 400
// @Failure 500
// @Router /subscriptions [post]
func (h *Handler) Subscribe(c *gin.Context) {
	var form models.SubscribeForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		h.reject(c, err)
		return
	}

	subscriber, err := form.Parse()
	if err != nil {
		h.reject(c, err)
		return
	}

	sub := models.Subscription{
		ID:           h.newID(),
		Email:        subscriber.Email,
		Name:         subscriber.Name,
		SubscribedAt: h.now().UTC(),
	}

	// A client that disconnects does not abort an insert that has already started.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.timeout)
	defer cancel()

	if err := h.store.Insert(ctx, sub); err != nil {
		h.log.Error("failed to store subscription",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
		c.Status(http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSubscriptionCreated()
	}
	h.log.Info("new subscriber saved", zap.String("subscription_id", sub.ID.String()))
	c.Status(http.StatusCreated)
}

func (h *Handler) reject(c *gin.Context, err error) {
	h.log.Debug("rejected subscription form", zap.Error(err))
	if h.metrics != nil {
		h.metrics.RecordValidationError()
	}
	c.Status(http.StatusBadRequest)
}
