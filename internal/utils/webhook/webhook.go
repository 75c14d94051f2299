package webhook

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

// Client pings an uptime monitor after a successful job run
type Client struct {
	client *resty.Client
	logger *logger.Logger
}

func New(logger *logger.Logger) *Client {
	return &Client{
		client: resty.New().SetTimeout(10 * time.Second),
		logger: logger,
	}
}

// CallUptimeWebhook sends a GET to webhookURL. An empty URL is a no-op.
func (c *Client) CallUptimeWebhook(ctx context.Context, webhookURL string) error {
	if webhookURL == "" {
		return nil
	}

	resp, err := c.client.R().SetContext(ctx).Get(webhookURL)
	if err != nil {
		c.logger.Error("[CallUptimeWebhook][client.Get]", map[string]string{
			"url":   webhookURL,
			"error": err.Error(),
		})
		return errors.Wrap(err, "call uptime webhook")
	}
	if resp.IsError() {
		c.logger.Error("[CallUptimeWebhook] unexpected status", map[string]string{
			"url":         webhookURL,
			"status_code": resp.Status(),
		})
		return errors.Errorf("uptime webhook answered %s", resp.Status())
	}

	c.logger.Debug("called uptime webhook", map[string]string{
		"url":         webhookURL,
		"status_code": resp.Status(),
	})
	return nil
}
