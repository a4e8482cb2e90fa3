package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

// Metrics holds the service's counters. Every method is safe on a nil
// receiver so callers never need to check whether metrics are enabled.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *GaugeVec

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	sessions  *GaugeVec
	turns     *CounterVec
	insights  *CounterVec
	observers *GaugeVec

	redisUp   *GaugeVec
	redisPing *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func Current() *Metrics { return instance }

// Init creates the process-wide metrics when METRICS_ENABLED is set.
func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() { instance = New() })
	return instance
}

// New builds an unregistered Metrics, for tests.
func New() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		apiRequests: NewCounterVec("ic_api_requests_total", "API requests by method/route/status.", "method", "route", "status"),
		apiLatency:  NewHistogramVec("ic_api_request_duration_seconds", "API request latency by method/route/status.", latency, "method", "route", "status"),
		apiInflight: NewGaugeVec("ic_api_inflight_requests", "In-flight API requests."),
		llmRequests: NewCounterVec("ic_llm_requests_total", "Inference calls by operation/status.", "op", "status"),
		llmLatency:  NewHistogramVec("ic_llm_request_duration_seconds", "Inference latency by operation/status.", latency, "op", "status"),
		sessions:    NewGaugeVec("ic_sessions_live", "Sessions held in memory."),
		turns:       NewCounterVec("ic_turns_total", "Finalized candidate turns by outcome.", "outcome"),
		insights:    NewCounterVec("ic_insights_total", "Coaching insights emitted by type/priority.", "type", "priority"),
		observers:   NewGaugeVec("ic_observers_attached", "Attached live observers."),
		redisUp:     NewGaugeVec("ic_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing:   NewGaugeVec("ic_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

// ObserveLLM records one inference call. op is complete, classify or embed.
func (m *Metrics) ObserveLLM(op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
	}
	m.llmRequests.Inc(op, status)
	m.llmLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) SessionsLive(delta float64) {
	if m == nil {
		return
	}
	m.sessions.Add(delta)
}

// IncTurn counts a finalized turn: delivered, failed or filtered.
func (m *Metrics) IncTurn(outcome string) {
	if m == nil {
		return
	}
	m.turns.Inc(outcome)
}

func (m *Metrics) IncInsight(kind, priority string) {
	if m == nil {
		return
	}
	m.insights.Inc(kind, priority)
}

func (m *Metrics) ObserversAttached(delta float64) {
	if m == nil {
		return
	}
	m.observers.Add(delta)
}

func (m *Metrics) TurnCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.turns.Value(outcome)
}

func (m *Metrics) LLMCount(op, status string) float64 {
	if m == nil {
		return 0
	}
	return m.llmRequests.Value(op, status)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.sessions, m.turns, m.insights, m.observers,
		m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// StartRedisCollector calls ping every interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, ping func(context.Context) error, interval time.Duration) {
	if m == nil || ping == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := ping(ctx); err != nil {
					m.redisUp.Set(0)
					log.Warn("metrics: redis ping failed", "error", err)
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
