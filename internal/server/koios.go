package server

import (
	"sync"
	"time"

	"github.com/dwarvesf/xray-txhistory/internal/koios"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/monitoring"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

// koiosRegistry builds one circuit breaker guarded Koios client per network
// on first use and keeps it, so breaker state survives network switches.
type koiosRegistry struct {
	mu      sync.Mutex
	clients map[model.Network]*monitoring.CircuitBreakerKoios

	appConfig *config.AppConfig
	logger    *logger.Logger
	metrics   *monitoring.ExternalAPIMetrics
}

func newKoiosRegistry(appConfig *config.AppConfig, logger *logger.Logger, metrics *monitoring.ExternalAPIMetrics) *koiosRegistry {
	return &koiosRegistry{
		clients:   make(map[model.Network]*monitoring.CircuitBreakerKoios),
		appConfig: appConfig,
		logger:    logger,
		metrics:   metrics,
	}
}

func (r *koiosRegistry) get(network model.Network) *monitoring.CircuitBreakerKoios {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[network]; ok {
		return client
	}

	timeouts := monitoring.DefaultTimeoutConfig
	if r.appConfig.Koios.Timeout > 0 {
		// room for every retry of the underlying client
		retries := r.appConfig.Koios.MaxRetries
		if retries <= 0 {
			retries = 1
		}
		timeouts.RequestTimeout = r.appConfig.Koios.Timeout*time.Duration(retries) + r.appConfig.Koios.Backoff*time.Duration(retries*retries)
	}

	client := monitoring.NewCircuitBreakerKoiosWithTimeout(
		koios.New(r.appConfig, network, r.logger),
		monitoring.CircuitBreakerConfigs[monitoring.KoiosServiceName],
		timeouts,
		r.metrics,
		r.logger,
	)
	r.clients[network] = client
	r.logger.Info("koios client ready", map[string]string{
		"network": string(network),
		"baseURL": koios.BaseURL(r.appConfig.Koios.URLTemplate, network),
	})
	return client
}
