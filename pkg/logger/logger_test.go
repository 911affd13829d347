package logger_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Nazarious-ucu/newsletter-api/pkg/logger"
)

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsletter.log")

	l, err := logger.NewLogger(logger.Options{Level: "info", FilePath: path, ServiceName: "newsletter"})
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"newsletter"`)
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := logger.NewLogger(logger.Options{Level: "loud"})
	assert.Error(t, err)
}

func TestRoundTripper_LogsCompletedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zap.InfoLevel)
	client := &http.Client{Transport: logger.NewRoundTripper(zap.New(core))}

	resp, err := client.Get(srv.URL + "/email")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusAccepted), entries[0].ContextMap()["status_code"])
}

func TestRoundTripper_LogsFailedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	core, logs := observer.New(zap.InfoLevel)
	client := &http.Client{Transport: logger.NewRoundTripper(zap.New(core))}

	_, err := client.Get(url)
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("HTTP request failed").Len())
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(logger.GinMiddleware(zap.New(core)))
	r.GET("/health_check", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health_check", nil))

	entries := logs.FilterMessage("request handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/health_check", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}
