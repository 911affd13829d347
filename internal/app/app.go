package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Nazarious-ucu/newsletter-api/docs"
	"github.com/Nazarious-ucu/newsletter-api/internal/config"
	"github.com/Nazarious-ucu/newsletter-api/internal/emailer"
	"github.com/Nazarious-ucu/newsletter-api/internal/handlers/health"
	"github.com/Nazarious-ucu/newsletter-api/internal/handlers/subscription"
	"github.com/Nazarious-ucu/newsletter-api/internal/metrics"
	"github.com/Nazarious-ucu/newsletter-api/internal/models"
	"github.com/Nazarious-ucu/newsletter-api/internal/repository/postgres"
	"github.com/Nazarious-ucu/newsletter-api/pkg/logger"
)

const (
	timeoutDuration = 5 * time.Second

	metricsNamespace = "newsletter"
	emailBreakerName = "EmailAPI"
)

type App struct {
	cfg config.Settings
	log *zap.Logger
}

type SubscriptionStore interface {
	Insert(ctx context.Context, sub models.Subscription) error
}

type ServiceContainer struct {
	SubRepository *postgres.SubscriptionRepository
	EmailClient   *emailer.BreakerClient
	Metrics       *metrics.Metrics

	Router   *gin.Engine
	Srv      *http.Server
	Listener net.Listener
	Db       *sql.DB
}

// Port is the TCP port the listener is bound to, which differs from the
// configured one when application_port is 0.
func (c ServiceContainer) Port() int {
	if addr, ok := c.Listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

func (c ServiceContainer) Address() string {
	return c.Listener.Addr().String()
}

type RouterDeps struct {
	Store          SubscriptionStore
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
}

func New(cfg config.Settings, logger *zap.Logger) *App {
	return &App{
		cfg: cfg,
		log: logger,
	}
}

func (a *App) Init(ctx context.Context) (ServiceContainer, error) {
	a.log.Info("initializing application",
		zap.String("address", a.cfg.ServerAddress()),
		zap.String("database_host", a.cfg.Database.Host),
		zap.String("database_name", a.cfg.Database.DatabaseName),
	)

	db, err := postgres.Open(ctx, a.cfg.Database)
	if err != nil {
		return ServiceContainer{}, err
	}

	m := metrics.NewMetrics(metricsNamespace, db, a.cfg.Database.DatabaseName)
	subRepository := postgres.NewSubscriptionRepository(db, m)

	emailClient, err := a.newEmailClient()
	if err != nil {
		_ = db.Close()
		return ServiceContainer{}, err
	}

	router := NewRouter(RouterDeps{
		Store:          subRepository,
		Logger:         a.log,
		Metrics:        m,
		RequestTimeout: a.cfg.RequestTimeout(),
	})

	listener, err := net.Listen("tcp", a.cfg.ServerAddress())
	if err != nil {
		_ = db.Close()
		return ServiceContainer{}, fmt.Errorf("bind %s: %w", a.cfg.ServerAddress(), err)
	}

	apiServer := &http.Server{
		Addr:        listener.Addr().String(),
		Handler:     router,
		ReadTimeout: a.cfg.ReadTimeout(),
	}

	return ServiceContainer{
		SubRepository: subRepository,
		EmailClient:   emailClient,
		Metrics:       m,

		Router:   router,
		Srv:      apiServer,
		Listener: listener,
		Db:       db,
	}, nil
}

func (a *App) newEmailClient() (*emailer.BreakerClient, error) {
	if !a.cfg.EmailClient.Enabled() {
		a.log.Info("email client not configured")
		return nil, nil
	}

	sender, err := a.cfg.EmailClient.Sender()
	if err != nil {
		return nil, err
	}

	httpLogClient := &http.Client{
		Transport: logger.NewRoundTripper(a.log.With(zap.String("component", "email_client"))),
		Timeout:   a.cfg.EmailClient.Timeout(),
	}
	client, err := emailer.NewClient(
		a.cfg.EmailClient.BaseURL,
		sender,
		a.cfg.EmailClient.AuthorizationToken,
		httpLogClient,
	)
	if err != nil {
		return nil, err
	}

	return emailer.NewBreakerClient(emailBreakerName, emailer.DefaultBreakerConfig, client), nil
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(deps.Logger))

	subOpts := []subscription.Option{subscription.WithTimeout(deps.RequestTimeout)}
	if deps.Metrics != nil {
		router.Use(deps.Metrics.HTTPMiddleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
		subOpts = append(subOpts, subscription.WithMetrics(deps.Metrics))
	}

	healthHandler := health.NewHandler()
	subHandler := subscription.NewHandler(deps.Store, deps.Logger, subOpts...)

	router.GET("/health_check", healthHandler.Check)
	router.POST("/subscriptions", subHandler.Subscribe)
	router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))

	return router
}

// Start serves on the bound listener until ctx is cancelled or the server
// fails, then shuts everything down.
func (a *App) Start(ctx context.Context, srvContainer ServiceContainer) error {
	a.log.Info("starting server", zap.String("address", srvContainer.Address()))

	errCh := make(chan error, 1)
	go func() {
		err := srvContainer.Srv.Serve(srvContainer.Listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.log.Error("server failed", zap.Error(serveErr))
		}
	}

	if err := a.Stop(srvContainer); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}

func (a *App) Stop(srvContainer ServiceContainer) error {
	a.log.Info("stopping application")

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()

	var errs []error
	if err := srvContainer.Srv.Shutdown(ctx); err != nil {
		a.log.Error("HTTP shutdown error", zap.Error(err))
		errs = append(errs, err)
	} else {
		a.log.Info("HTTP server stopped")
	}

	if err := srvContainer.Db.Close(); err != nil {
		a.log.Error("DB close error", zap.Error(err))
		errs = append(errs, err)
	} else {
		a.log.Info("database closed")
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
