package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dwarvesf/xray-txhistory/internal/monitoring"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

// HealthHandler implements IHealthHandler interface
type HealthHandler struct {
	config           *config.AppConfig
	logger           *logger.Logger
	db               *gorm.DB
	koios            KoiosResolver
	jobStatusManager *monitoring.JobStatusManager
}

// New creates a new health handler instance. db is nil when persistence is
// disabled.
func New(config *config.AppConfig, logger *logger.Logger, db *gorm.DB, koios KoiosResolver, jobStatusManager *monitoring.JobStatusManager) IHealthHandler {
	return &HealthHandler{
		config:           config,
		logger:           logger,
		db:               db,
		koios:            koios,
		jobStatusManager: jobStatusManager,
	}
}

// Basic handles the basic health check endpoint (/healthz)
// @Summary Basic health check
// @Description Returns basic system availability status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} BasicHealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Basic(c *gin.Context) {
	c.JSON(http.StatusOK, BasicHealthResponse{Message: "ok"})
}

// Database handles the database health check endpoint
// @Summary Database health check
// @Description Validates connectivity of the transaction detail store
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/db [get]
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	dbCheck := h.checkDatabase(requestContext(c))
	response.Checks["database"] = dbCheck
	response.DurationMs = time.Since(start).Milliseconds()

	if dbCheck.Status == statusUnhealthy {
		response.Status = statusUnhealthy
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.Status = statusHealthy
	c.JSON(http.StatusOK, response)
}

// External handles the external API dependencies health check endpoint
// @Summary External dependencies health check
// @Description Asks Koios for its tip on the network the host is on
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/external [get]
func (h *HealthHandler) External(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	ctx, cancel := context.WithTimeout(requestContext(c), 10*time.Second)
	defer cancel()

	koiosCheck := h.checkKoios(ctx)
	response.Checks[monitoring.KoiosServiceName] = koiosCheck
	response.DurationMs = time.Since(start).Milliseconds()

	if koiosCheck.Status != statusHealthy {
		response.Status = statusUnhealthy
		h.logger.Info("External health check failed", map[string]string{
			"error":    koiosCheck.Error,
			"duration": fmt.Sprintf("%dms", response.DurationMs),
		})
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.Status = statusHealthy
	c.JSON(http.StatusOK, response)
}

// checkDatabase performs database health validation
func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	if h.db == nil {
		check.Status = statusDisabled
		check.Metadata["reason"] = "DB_HOST not configured"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		check.Status = statusUnhealthy
		check.Error = fmt.Sprintf("failed to get underlying database: %v", err)
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		check.Status = statusUnhealthy
		if pingCtx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	stats := sqlDB.Stats()

	check.Status = statusHealthy
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["driver"] = "postgres"
	check.Metadata["connection_pool"] = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open":         stats.MaxOpenConnections,
	}

	return check
}

// checkKoios fetches the tip through the circuit breaker
func (h *HealthHandler) checkKoios(ctx context.Context) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	if h.koios == nil {
		check.Status = statusUnhealthy
		check.Error = "koios client not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	network, checker := h.koios()
	check.Metadata["network"] = string(network)
	if checker == nil {
		check.Status = statusUnhealthy
		check.Error = "koios client not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	tip, err := checker.HealthCheck(ctx)
	check.Metadata["circuit_breaker"] = checker.State().String()
	check.Latency = time.Since(start).Milliseconds()
	if err != nil {
		check.Status = statusUnhealthy
		if ctx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		return check
	}

	check.Status = statusHealthy
	check.Metadata["block_height"] = tip.BlockHeight
	check.Metadata["epoch_no"] = tip.EpochNo
	return check
}

func requestContext(c *gin.Context) context.Context {
	if c.Request != nil {
		return c.Request.Context()
	}
	return context.Background()
}
