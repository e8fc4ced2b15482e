package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker wrapped around an outbound client.
type BreakerConfig struct {
	// Name identifies the breaker in metrics and logs.
	Name string

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval between count resets while closed.
	Interval time.Duration

	// Timeout the breaker stays open before probing again.
	Timeout time.Duration

	// FailureRatio of failed requests that trips the breaker, evaluated only
	// once MinRequests have been observed.
	FailureRatio float64
	MinRequests  uint32

	// RequestTimeout is the per-request deadline of the wrapped client.
	RequestTimeout time.Duration
}

// DefaultBreakerConfig returns the defaults used for provider calls.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:           name,
		MaxRequests:    1,
		Interval:       60 * time.Second,
		Timeout:        30 * time.Second,
		FailureRatio:   0.5,
		MinRequests:    5,
		RequestTimeout: 10 * time.Second,
	}
}

// ErrCircuitOpen is returned while the breaker rejects requests outright.
var ErrCircuitOpen = gobreaker.ErrOpenState

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "profile",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	},
	[]string{"name"},
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// breakerTransport runs every round trip through a circuit breaker. An
// upstream 5xx counts as a failure and surfaces as a transport error; 4xx
// responses pass through untouched, since the provider uses them for
// rejected grants rather than outages.
type breakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%s %s: upstream status %d", req.Method, req.URL.Host, resp.StatusCode)
		}
		return resp, nil
	})
}

// NewBreakerClient builds an http.Client whose transport is guarded by a
// circuit breaker, so a provider outage sheds load instead of tying up
// request goroutines on a dead upstream.
func NewBreakerClient(cfg BreakerConfig, logger *slog.Logger) *http.Client {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &breakerTransport{
			base:    http.DefaultTransport,
			breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		},
	}
}
