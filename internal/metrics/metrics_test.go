package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordCapture(10*time.Millisecond, nil)
	m.RecordCapture(0, errors.New("timeout"))
	m.RecordMatch(time.Millisecond, 3)
	m.RecordClick("message", nil)
	m.RecordIteration("image_clicker", "clicked")
	m.SessionStarted("image_clicker")
	m.SessionStarted("image_clicker")
	m.SessionFinished("image_clicker")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Captures.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Captures.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Matches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Clicks.WithLabelValues("message", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Iterations.WithLabelValues("image_clicker", "clicked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive.WithLabelValues("image_clicker")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCapture(time.Second, nil)
		m.RecordMatch(time.Second, 1)
		m.RecordClick("arduino", errors.New("x"))
		m.RecordIteration("fixed_clicker", "clicked")
		m.SessionStarted("fixed_clicker")
		m.SessionFinished("fixed_clicker")
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordClick("message", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "cabalhelper_clicks_total"))
}
