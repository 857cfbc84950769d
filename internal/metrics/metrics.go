package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics счетчики работы кликеров. Все методы допускают nil-получатель,
// так что компоненты работают и без метрик.
type Metrics struct {
	Captures        *prometheus.CounterVec
	CaptureDuration prometheus.Histogram
	MatchDuration   prometheus.Histogram
	Matches         prometheus.Counter
	Clicks          *prometheus.CounterVec
	Iterations      *prometheus.CounterVec
	SessionsActive  *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics регистрирует метрики в отдельном реестре
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Captures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cabalhelper_captures_total",
				Help: "Frame captures by result",
			},
			[]string{"result"},
		),
		CaptureDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cabalhelper_capture_duration_seconds",
				Help:    "Frame capture duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		MatchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cabalhelper_match_duration_seconds",
				Help:    "Template matching duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		Matches: f.NewCounter(
			prometheus.CounterOpts{
				Name: "cabalhelper_matches_total",
				Help: "Template matches accepted after suppression and filtering",
			},
		),
		Clicks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cabalhelper_clicks_total",
				Help: "Synthesized clicks by backend and result",
			},
			[]string{"backend", "result"},
		),
		Iterations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cabalhelper_loop_iterations_total",
				Help: "Automation loop iterations by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		SessionsActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cabalhelper_sessions_active",
				Help: "Running automation sessions by tool",
			},
			[]string{"tool"},
		),
	}
}

// Registry реестр с метриками
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler HTTP обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordCapture учитывает один захват кадра
func (m *Metrics) RecordCapture(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Captures.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.CaptureDuration.Observe(d.Seconds())
	}
}

// RecordMatch учитывает один проход сопоставления
func (m *Metrics) RecordMatch(d time.Duration, found int) {
	if m == nil {
		return
	}
	m.MatchDuration.Observe(d.Seconds())
	m.Matches.Add(float64(found))
}

// RecordClick учитывает один клик
func (m *Metrics) RecordClick(backend string, err error) {
	if m == nil {
		return
	}
	m.Clicks.WithLabelValues(backend, result(err)).Inc()
}

// RecordIteration учитывает одну итерацию цикла автоматизации
func (m *Metrics) RecordIteration(tool, outcome string) {
	if m == nil {
		return
	}
	m.Iterations.WithLabelValues(tool, outcome).Inc()
}

// SessionStarted отмечает запуск сессии
func (m *Metrics) SessionStarted(tool string) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues(tool).Inc()
}

// SessionFinished отмечает завершение сессии
func (m *Metrics) SessionFinished(tool string) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues(tool).Dec()
}
