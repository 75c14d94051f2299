package health

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

// IHealthHandler defines the interface for health check handlers
type IHealthHandler interface {
	Basic(c *gin.Context)
	Database(c *gin.Context)
	External(c *gin.Context)
	Jobs(c *gin.Context)
}

// KoiosChecker is the circuit breaker guarded Koios client of one network
type KoiosChecker interface {
	HealthCheck(ctx context.Context) (*model.Tip, error)
	State() gobreaker.State
}

// KoiosResolver returns the checker for the network the host is on
type KoiosResolver func() (model.Network, KoiosChecker)
