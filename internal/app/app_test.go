package app_test

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/newsletter-api/internal/app"
	"github.com/Nazarious-ucu/newsletter-api/internal/config"
	"github.com/Nazarious-ucu/newsletter-api/internal/metrics"
	"github.com/Nazarious-ucu/newsletter-api/internal/repository/postgres"
)

const insertQuery = "INSERT INTO subscriptions"

func init() {
	gin.SetMode(gin.TestMode)
}

func unreachableDatabase() config.DatabaseSettings {
	return config.DatabaseSettings{
		Scheme:                "postgres",
		Username:              "postgres",
		Password:              "password",
		Host:                  "127.0.0.1",
		Port:                  1,
		DatabaseName:          "newsletter",
		SSLMode:               "disable",
		MaxOpenConns:          1,
		ConnectTimeoutSeconds: 1,
	}
}

func postForm(router http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_SubscribeAndMetrics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := metrics.NewMetrics("newsletter", nil, "")
	router := app.NewRouter(app.RouterDeps{
		Store:          postgres.NewSubscriptionRepository(db, m),
		Logger:         zap.NewNop(),
		Metrics:        m,
		RequestTimeout: time.Second,
	})

	mock.ExpectExec(insertQuery).
		WithArgs(sqlmock.AnyArg(), "ursula_le_guin@gmail.com", "le guin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postForm(router, url.Values{"name": {"le guin"}, "email": {"ursula_le_guin@gmail.com"}})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	w = postForm(router, url.Values{"name": {"le guin"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	router.ServeHTTP(mw, req)

	require.Equal(t, http.StatusOK, mw.Code)
	body := mw.Body.String()
	assert.Contains(t, body, "newsletter_subscriptions_created_total 1")
	assert.Contains(t, body, `newsletter_business_errors_total{error_type="validation_error",severity="warning"} 1`)
}

func TestRouter_StorageFailureIs500(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	router := app.NewRouter(app.RouterDeps{
		Store:          postgres.NewSubscriptionRepository(db, nil),
		Logger:         zap.NewNop(),
		RequestTimeout: time.Second,
	})

	mock.ExpectExec(insertQuery).WillReturnError(fmt.Errorf("connection reset"))

	w := postForm(router, url.Values{"name": {"le guin"}, "email": {"ursula_le_guin@gmail.com"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestRouter_HealthCheckWithStorageDown(t *testing.T) {
	db, err := sql.Open("postgres", unreachableDatabase().DSN())
	require.NoError(t, err)
	defer db.Close()

	router := app.NewRouter(app.RouterDeps{
		Store:          postgres.NewSubscriptionRepository(db, nil),
		Logger:         zap.NewNop(),
		RequestTimeout: time.Second,
	})

	req := httptest.NewRequest(http.MethodGet, "/health_check", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestInit_FailsWhenDatabaseUnreachable(t *testing.T) {
	cfg := config.Settings{
		ApplicationHost:       "127.0.0.1",
		ApplicationPort:       0,
		ReadTimeoutSeconds:    1,
		RequestTimeoutSeconds: 1,
		Database:              unreachableDatabase(),
	}

	_, err := app.New(cfg, zap.NewNop()).Init(context.Background())
	assert.Error(t, err)
}

func TestStart_ServesUntilContextCancelled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	router := app.NewRouter(app.RouterDeps{
		Store:          postgres.NewSubscriptionRepository(db, nil),
		Logger:         zap.NewNop(),
		RequestTimeout: time.Second,
	})
	container := app.ServiceContainer{
		Router:   router,
		Srv:      &http.Server{Handler: router, ReadTimeout: time.Second},
		Listener: listener,
		Db:       db,
	}
	require.NotZero(t, container.Port())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.New(config.Settings{}, zap.NewNop()).Start(ctx, container)
	}()

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health_check", container.Port()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
