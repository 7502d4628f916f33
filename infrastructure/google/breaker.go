package google

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bettersaved/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// CallObserver receives one notification per provider call and per breaker transition
type CallObserver interface {
	ObserveProviderCall(operation string, err error)
	SetBreakerState(name string, state int)
}

// BreakerConfig holds configuration for the provider circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips at 80% failures over at least five calls
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "google-workspace",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Guard runs every provider call through one shared circuit breaker and a trace subsegment
type Guard struct {
	cb       *gobreaker.CircuitBreaker
	tracer   *observability.Tracer
	observer CallObserver
	logger   *zap.Logger
}

// NewGuard creates the breaker. tracer and observer may be nil.
func NewGuard(cfg BreakerConfig, tracer *observability.Tracer, observer CallObserver, logger *zap.Logger) *Guard {
	g := &Guard{tracer: tracer, observer: observer, logger: logger}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if observer != nil {
				observer.SetBreakerState(name, int(to))
			}
		},
		IsSuccessful: countsAsSuccess,
	})
	return g
}

// Do executes fn under the breaker. An open breaker fails fast with gobreaker.ErrOpenState.
func (g *Guard) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.tracer.Trace(ctx, operation, fn)
	})
	if g.observer != nil {
		g.observer.ObserveProviderCall(operation, err)
	}
	if err != nil {
		g.logger.Debug("Provider call failed", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

// State reports the current breaker state
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// countsAsSuccess keeps caller mistakes and missing resources from tripping the breaker.
// Only throttling, server errors and transport failures count.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code < http.StatusInternalServerError && apiErr.Code != http.StatusTooManyRequests
	}
	return false
}

// isNotFound reports a 404 from the provider
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
