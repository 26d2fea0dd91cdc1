package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotdesk/plotdesk/internal/common/config"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(config.MetricsConfig{Namespace: "test"})

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/leads", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	count := testutil.ToFloat64(m.httpReqCnt.WithLabelValues(http.MethodGet, "/api/leads", "200"))
	assert.Equal(t, 1.0, count)
}

func TestEnvelopePublished(t *testing.T) {
	m := New(config.MetricsConfig{})
	m.EnvelopePublished("lead:created")
	m.EnvelopePublished("lead:created")

	count := testutil.ToFloat64(m.envelopes.WithLabelValues("lead:created"))
	assert.Equal(t, 2.0, count)
}

func TestHandler_ServesRegistry(t *testing.T) {
	m := New(config.MetricsConfig{})
	m.RegisterConnectionGauge(func() int { return 3 })

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plotdesk_realtime_connections 3")
}
