package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveDocument(true)
	m.ObserveDocument(true)
	m.ObserveDocument(false)
	m.ObserveMatches("fuzzy", 3)
	m.ObserveMatches("none", 0)
	m.ObserveDroppedItems(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.matches.WithLabelValues("fuzzy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.droppedItems))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDocument(true)
	m.ObserveMatches("exact", 1)
	m.ObserveDroppedItems(1)
	m.ObserveRequest("GET", "/health", 200, time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/api/analyze", 200, 250*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `invoice_analyzer_http_request_duration_seconds_count{method="POST",path="/api/analyze",status="200"} 1`)
}
