package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dwarvesf/xray-txhistory/internal/controller"
	"github.com/dwarvesf/xray-txhistory/internal/handler/health"
	"github.com/dwarvesf/xray-txhistory/internal/handler/host"
	"github.com/dwarvesf/xray-txhistory/internal/handler/metrics"
	"github.com/dwarvesf/xray-txhistory/internal/handler/transaction"
	"github.com/dwarvesf/xray-txhistory/internal/hostbridge"
	"github.com/dwarvesf/xray-txhistory/internal/monitoring"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

type Handler struct {
	TransactionHandler transaction.IHandler
	HostHandler        host.IHandler
	HealthHandler      health.IHealthHandler
	MetricsHandler     *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	ctrl controller.IController,
	bridge hostbridge.IBridge,
	koios health.KoiosResolver,
	db *gorm.DB,
	metricsRegistry *prometheus.Registry,
	jobStatusManager *monitoring.JobStatusManager) *Handler {
	return &Handler{
		TransactionHandler: transaction.New(ctrl, logger),
		HostHandler:        host.New(bridge, appConfig, logger),
		HealthHandler:      health.New(appConfig, logger, db, koios, jobStatusManager),
		MetricsHandler:     metrics.NewMetricsHandler(metricsRegistry),
	}
}
