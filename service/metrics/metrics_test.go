package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordAPICall("activity", "success", 0.1)
		m.RecordPollTick("0xabc", "success", 0.1)
		m.RecordActivityFetched("0xabc", 3)
		m.RecordActivityNew("0xabc", 1)
		m.RecordActivitySkipped("0xabc", "already_seen", 2)
		m.SetWalletCursor("0xabc", 100)
		m.RecordNotification("telegram", errors.New("boom"), 0.1)
		m.RecordHTTPRequest("/health", "GET", 200, 0.01)
		m.RecordSSEConnectionChange("0xabc", 1)
		m.RecordSSEEventSent("0xabc", "activity")
		m.RecordNATSPublish("success", 0.01)
	})
}

func TestRecordNotification(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordNotification("telegram", nil, 0.1)
	m.RecordNotification("telegram", errors.New("boom"), 0.1)
	m.RecordNotification("telegram", errors.New("boom"), 0.1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("telegram", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("telegram", "error")))
}

func TestSetWalletCursor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SetWalletCursor("0xabc", 200)
	m.SetWalletCursor("0xabc", 300)

	assert.Equal(t, 300.0, testutil.ToFloat64(m.walletCursor.WithLabelValues("0xabc")))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	handler := HTTPMetricsMiddleware(m, "/api/v1/wallets")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/v1/wallets", "GET", "4xx")))
}

func TestHTTPMetricsMiddleware_Flush(t *testing.T) {
	handler := HTTPMetricsMiddleware(nil, "/stream")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Flusher)
		assert.True(t, ok, "wrapped writer should implement http.Flusher")
		w.Write([]byte("data"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.Equal(t, "data", rec.Body.String())
}

func TestStatusCodeToString(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToString(204))
	assert.Equal(t, "3xx", statusCodeToString(301))
	assert.Equal(t, "4xx", statusCodeToString(404))
	assert.Equal(t, "5xx", statusCodeToString(503))
	assert.Equal(t, "unknown", statusCodeToString(0))
}
