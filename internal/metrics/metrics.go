package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assist-by/conduit/internal/domain"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "venue_requests_total", Help: "Venue requests by outcome"},
		[]string{"venue", "op", "outcome"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "venue_request_duration_seconds", Help: "Venue request latency", Buckets: prometheus.DefBuckets},
		[]string{"venue", "op"},
	)
	PendingRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "socket_pending_requests", Help: "Requests waiting for a correlated reply"},
		[]string{"venue"},
	)
	UnsolicitedFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "socket_unsolicited_frames_total", Help: "Frames dropped without a known req_id"},
		[]string{"venue"},
	)
	RateLimitWaits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rate_limit_waits_total", Help: "Calls delayed by the rate limiter"},
		[]string{"venue"},
	)
	ProtectionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "protection_failures_total", Help: "Stop-loss/take-profit orders that failed after a primary order"},
		[]string{"venue", "kind"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Trading signals emitted"},
		[]string{"symbol", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal, RequestDuration, PendingRequests, UnsolicitedFrames,
		RateLimitWaits, ProtectionFailures, SignalsTotal,
	)
}

// Outcome은 에러를 메트릭 라벨 값으로 변환합니다
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, domain.ErrConnection):
		return "connection"
	case errors.Is(err, domain.ErrBroker):
		return "broker"
	default:
		return "error"
	}
}

// Serve는 /metrics 엔드포인트를 제공하는 HTTP 서버를 시작합니다
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
