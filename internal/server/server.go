package server

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dwarvesf/xray-txhistory/internal/cache"
	"github.com/dwarvesf/xray-txhistory/internal/controller"
	"github.com/dwarvesf/xray-txhistory/internal/handler"
	"github.com/dwarvesf/xray-txhistory/internal/handler/health"
	"github.com/dwarvesf/xray-txhistory/internal/history"
	"github.com/dwarvesf/xray-txhistory/internal/hostbridge"
	"github.com/dwarvesf/xray-txhistory/internal/koios"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/monitoring"
	"github.com/dwarvesf/xray-txhistory/internal/store"
	pgstore "github.com/dwarvesf/xray-txhistory/internal/store/postgres"
	"github.com/dwarvesf/xray-txhistory/internal/telemetry"
	"github.com/dwarvesf/xray-txhistory/internal/transport/http"
	"github.com/dwarvesf/xray-txhistory/internal/txinfo"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
	"github.com/dwarvesf/xray-txhistory/internal/utils/vault"
	"github.com/dwarvesf/xray-txhistory/internal/utils/webhook"
)

const tipPollJobName = "tip_poll"

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, appConfig.Tracing)
	if err != nil {
		logger.Error("[Init][InitTracer]", map[string]string{
			"error": err.Error(),
		})
	}
	defer shutdownTracer(context.Background())

	loadKoiosToken(ctx, appConfig, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(registry)
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(registry)
	business := monitoring.NewBusinessMetricsRecorder(httpMetrics)

	var db *gorm.DB
	if pgstore.Enabled(appConfig) {
		db = pgstore.New(appConfig, logger)
	}
	s := store.New()

	redisCache, err := cache.NewRedis(appConfig.Redis, logger)
	if err != nil {
		// the in-process cache still serves
		logger.Error("[Init][cache.NewRedis]", map[string]string{
			"error": err.Error(),
		})
		redisCache = nil
	}
	detailCache := cache.NewLayered(cache.NewMemory(appConfig.History.CacheTTL), redisCache)

	koiosClients := newKoiosRegistry(appConfig, logger, apiMetrics)
	bridge := hostbridge.New(appConfig, logger, business)
	loader := history.New(nil, nil, appConfig.History.PageSize, logger, business)
	sources := func(network model.Network) (history.Fetcher, history.Enricher) {
		client := koiosClients.get(network)
		return client, txinfo.New(network, client, detailCache, db, s, logger, business)
	}
	ctrl := controller.New(bridge, loader, sources, logger)
	defer ctrl.Close()

	jobStatusManager := startTipPoller(ctx, appConfig, logger, bridge, koiosClients, jobMetrics)

	koiosHealth := func() (model.Network, health.KoiosChecker) {
		network := bridge.State().Network
		return network, koiosClients.get(network)
	}
	h := handler.New(appConfig, logger, ctrl, bridge, koiosHealth, db, registry, jobStatusManager)

	srv := &stdhttp.Server{
		Addr:              ":" + appConfig.ApiServer.Port,
		Handler:           http.NewHttpServer(appConfig, logger, h, httpMetrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("[Init][srv.Shutdown]", map[string]string{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("http server listening", map[string]string{
		"port":    appConfig.ApiServer.Port,
		"network": string(bridge.State().Network),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		logger.Error("[Init][srv.ListenAndServe]", map[string]string{
			"error": err.Error(),
		})
	}
}

// loadKoiosToken fills the Koios token from Vault when it is not set in env
func loadKoiosToken(ctx context.Context, appConfig *config.AppConfig, logger *logger.Logger) {
	if appConfig.Koios.APIToken != "" || appConfig.Vault.Addr == "" || appConfig.Vault.KoiosTokenKey == "" {
		return
	}

	vc, err := vault.New(ctx, appConfig.Vault)
	if err != nil {
		logger.Error("[loadKoiosToken][vault.New]", map[string]string{
			"error": err.Error(),
		})
		return
	}
	token, err := vc.GetKV(ctx, appConfig.Vault.KoiosTokenKey)
	if err != nil {
		logger.Error("[loadKoiosToken][GetKV]", map[string]string{
			"error": err.Error(),
			"key":   appConfig.Vault.KoiosTokenKey,
		})
		return
	}
	appConfig.Koios.APIToken = token
}

// startTipPoller schedules the Koios tip poll when TIP_POLL_PERIOD is set.
// It returns nil when no job runs.
func startTipPoller(
	ctx context.Context,
	appConfig *config.AppConfig,
	logger *logger.Logger,
	bridge hostbridge.IBridge,
	koiosClients *koiosRegistry,
	jobMetrics *monitoring.BackgroundJobMetrics,
) *monitoring.JobStatusManager {
	period := appConfig.History.TipPollPeriod
	if period == "" {
		return nil
	}

	jsm := monitoring.NewJobStatusManager(logger, jobMetrics)
	tel := telemetry.New(appConfig, logger, bridge, func(network model.Network) koios.IKoios {
		return koiosClients.get(network)
	}, webhook.New(logger))

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	job := monitoring.NewInstrumentedJob(tipPollJobName, tel.PollTip, jsm, logger, time.Minute)
	if _, err := c.AddJob("@every "+period, job); err != nil {
		logger.Error("[startTipPoller][AddJob]", map[string]string{
			"error":  err.Error(),
			"period": period,
		})
		return nil
	}

	c.Start()
	go jsm.RunStalledDetection(ctx, time.Minute)
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	// first tip without waiting a whole period
	go job.Run()

	logger.Info("tip poller scheduled", map[string]string{
		"period": period,
	})
	return jsm
}
