package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.Observe(OpLogin, OutcomeOK)
	m.Observe(OpLogin, OutcomeOK)
	m.Observe(OpLogin, OutcomeRejected)
	m.Notification(OutcomeError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues(OpLogin, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(OpLogin, OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues(OutcomeError)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Observe(OpRegister, OutcomeOK)
		m.Notification(OutcomeOK)
	})

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareAndHandler(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/denied", func(c echo.Context) error { return echo.NewHTTPError(http.StatusForbidden) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for _, path := range []string{"/ok", "/denied", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 3, testutil.CollectAndCount(m.requestDuration, "users_http_request_duration_seconds"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `users_http_request_duration_seconds_count{method="GET",path="/denied",status="403"} 1`)
	assert.Contains(t, body, `users_http_request_duration_seconds_count{method="GET",path="/boom",status="500"} 1`)
	assert.Contains(t, body, `users_http_request_duration_seconds_count{method="GET",path="/ok",status="200"} 1`)
}
