package monitoring

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/xray-txhistory/internal/koios"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

// CircuitBreakerKoios wraps koios.IKoios with circuit breaker functionality
type CircuitBreakerKoios struct {
	wrapped        koios.IKoios
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

func NewCircuitBreakerKoiosWithTimeout(wrapped koios.IKoios, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerKoios {
	cb := &CircuitBreakerKoios{
		wrapped:       wrapped,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        KoiosServiceName,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		// a cancelled refresh or a rejected request says nothing about Koios health
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch classifyError(err) {
			case ErrorTypeCanceled, ErrorTypeClientError:
				return true
			}
			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(KoiosServiceName, to)
		},
	}

	cb.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	metrics.UpdateCircuitBreakerState(KoiosServiceName, gobreaker.StateClosed)
	return cb
}

// State reports the breaker state, used by the external health check
func (cb *CircuitBreakerKoios) State() gobreaker.State {
	return cb.circuitBreaker.State()
}

func (cb *CircuitBreakerKoios) AddressTxs(ctx context.Context, addresses []string, limit, offset int) ([]model.TxSummary, error) {
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout(ctx, "address_txs", func(ctx context.Context) (interface{}, error) {
			return cb.wrapped.AddressTxs(ctx, addresses, limit, offset)
		})
	})
	if err != nil {
		return nil, err
	}

	return result.([]model.TxSummary), nil
}

func (cb *CircuitBreakerKoios) TxInfo(ctx context.Context, txHashes []string) ([]model.TxDetail, error) {
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout(ctx, "tx_info", func(ctx context.Context) (interface{}, error) {
			return cb.wrapped.TxInfo(ctx, txHashes)
		})
	})
	if err != nil {
		return nil, err
	}

	return result.([]model.TxDetail), nil
}

func (cb *CircuitBreakerKoios) Tip(ctx context.Context) (*model.Tip, error) {
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout(ctx, "tip", func(ctx context.Context) (interface{}, error) {
			return cb.wrapped.Tip(ctx)
		})
	})
	if err != nil {
		return nil, err
	}

	return result.(*model.Tip), nil
}

// HealthCheck asks Koios for its tip under the short health check timeout
func (cb *CircuitBreakerKoios) HealthCheck(ctx context.Context) (*model.Tip, error) {
	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return cb.executeWithTimeout(ctx, "health_check", func(ctx context.Context) (interface{}, error) {
			return cb.wrapped.Tip(ctx)
		})
	})
	if err != nil {
		return nil, err
	}

	return result.(*model.Tip), nil
}

// executeWithTimeout executes a function with timeout and metrics recording
func (cb *CircuitBreakerKoios) executeWithTimeout(parent context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	start := time.Now()

	var timeout time.Duration
	switch operation {
	case "health_check":
		timeout = cb.timeoutConfig.HealthCheckTimeout
	default:
		timeout = cb.timeoutConfig.RequestTimeout
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	result, err := fn(ctx)
	duration := time.Since(start).Seconds()

	if err != nil {
		// only our own deadline counts as a timeout, not the caller cancelling
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
			cb.metrics.RecordTimeout(KoiosServiceName, operation)
		}
		cb.logError(operation, duration, err)
		cb.metrics.RecordAPICall(KoiosServiceName, operation, "error", duration)
		return nil, err
	}

	cb.metrics.RecordAPICall(KoiosServiceName, operation, "success", duration)
	return result, nil
}

func (cb *CircuitBreakerKoios) logError(operation string, duration float64, err error) {
	cb.logger.Error("External API call failed", map[string]string{
		"service":    KoiosServiceName,
		"operation":  operation,
		"duration":   strconv.FormatFloat(duration, 'f', 3, 64),
		"error":      err.Error(),
		"error_type": string(classifyError(err)),
		"cb_state":   cb.circuitBreaker.State().String(),
	})
}

// classifyError classifies errors into different types for metrics and logging
func classifyError(err error) APIErrorType {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var statusErr *koios.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode >= 500:
			return ErrorTypeServerError
		case statusErr.StatusCode == 429:
			// rate limiting means the upstream is saturated
			return ErrorTypeServerError
		case statusErr.StatusCode >= 400:
			return ErrorTypeClientError
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeNetworkError
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "timeout") {
		return ErrorTypeTimeout
	}
	if strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "no such host") {
		return ErrorTypeNetworkError
	}

	return ErrorTypeUnknown
}
