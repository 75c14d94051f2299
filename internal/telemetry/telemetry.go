// Package telemetry keeps the host tip fresh when no host shell pushes it,
// and sets up tracing.
package telemetry

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/hostbridge"
	"github.com/dwarvesf/xray-txhistory/internal/koios"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
	"github.com/dwarvesf/xray-txhistory/internal/utils/webhook"
)

// KoiosFor returns the Koios client of a network
type KoiosFor func(network model.Network) koios.IKoios

type Telemetry struct {
	appConfig *config.AppConfig
	logger    *logger.Logger
	bridge    hostbridge.IBridge
	koiosFor  KoiosFor
	webhook   *webhook.Client
}

func New(appConfig *config.AppConfig, logger *logger.Logger, bridge hostbridge.IBridge, koiosFor KoiosFor, webhook *webhook.Client) *Telemetry {
	return &Telemetry{
		appConfig: appConfig,
		logger:    logger,
		bridge:    bridge,
		koiosFor:  koiosFor,
		webhook:   webhook,
	}
}

func (t *Telemetry) PollTip(ctx context.Context) error {
	network := t.bridge.State().Network

	tip, err := t.koiosFor(network).Tip(ctx)
	if err != nil {
		t.logger.Error("[PollTip][Tip]", map[string]string{
			"error":   err.Error(),
			"network": string(network),
		})
		return errors.Wrap(err, "fetch tip")
	}

	// the host switched networks while we were asking
	if t.bridge.State().Network != network {
		t.logger.Debug("[PollTip] network changed, dropping tip", map[string]string{
			"network": string(network),
		})
		return nil
	}

	if err := t.bridge.Apply(ctx, hostbridge.TipMessage(tip.BlockHeight)); err != nil {
		t.logger.Error("[PollTip][Apply]", map[string]string{
			"error":       err.Error(),
			"blockHeight": strconv.FormatInt(tip.BlockHeight, 10),
		})
		return errors.Wrap(err, "apply tip")
	}

	if t.webhook != nil {
		// a failing uptime monitor is not a failed poll
		_ = t.webhook.CallUptimeWebhook(ctx, t.appConfig.Monitoring.UptimeWebhookURL)
	}
	return nil
}
