package koios

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

const tracerName = "xray-txhistory/koios"

type koios struct {
	baseURL    string
	client     *resty.Client
	logger     *logger.Logger
	maxRetries int
	backoff    time.Duration
}

// BaseURL fills the network into the configured Koios URL template.
func BaseURL(template string, network model.Network) string {
	return strings.TrimRight(strings.ReplaceAll(template, "{network}", string(network)), "/")
}

// New creates a Koios client bound to one network.
func New(cfg *config.AppConfig, network model.Network, logger *logger.Logger) IKoios {
	return NewWithURL(BaseURL(cfg.Koios.URLTemplate, network), cfg.Koios, logger)
}

func NewWithURL(baseURL string, cfg config.KoiosConfig, logger *logger.Logger) IKoios {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.APIToken != "" {
		client.SetAuthToken(cfg.APIToken)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &koios{
		baseURL:    baseURL,
		client:     client,
		logger:     logger,
		maxRetries: maxRetries,
		backoff:    cfg.Backoff,
	}
}

func (k *koios) AddressTxs(ctx context.Context, addresses []string, limit, offset int) ([]model.TxSummary, error) {
	query := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}

	var txs []model.TxSummary
	err := k.do(ctx, "AddressTxs", resty.MethodPost, "/address_txs", query, addressTxsRequest{Addresses: addresses}, &txs)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []model.TxSummary{}
	}
	return txs, nil
}

func (k *koios) TxInfo(ctx context.Context, txHashes []string) ([]model.TxDetail, error) {
	if len(txHashes) == 0 {
		return []model.TxDetail{}, nil
	}

	body := txInfoRequest{
		TxHashes: txHashes,
		Inputs:   true,
		Assets:   true,
	}

	var details []model.TxDetail
	err := k.do(ctx, "TxInfo", resty.MethodPost, "/tx_info", nil, body, &details)
	if err != nil {
		return nil, err
	}
	if details == nil {
		details = []model.TxDetail{}
	}
	return details, nil
}

func (k *koios) Tip(ctx context.Context) (*model.Tip, error) {
	var tips []model.Tip
	if err := k.do(ctx, "Tip", resty.MethodGet, "/tip", nil, nil, &tips); err != nil {
		return nil, err
	}
	if len(tips) == 0 {
		return nil, errors.New("koios returned an empty tip")
	}
	return &tips[0], nil
}

// do sends one request with retries on transport errors, 429 and 5xx.
func (k *koios) do(ctx context.Context, op, method, path string, query map[string]string, body, out interface{}) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "koios."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("koios.base_url", k.baseURL),
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)

	var lastErr error
	for attempt := 1; attempt <= k.maxRetries; attempt++ {
		if attempt > 1 {
			if err := k.wait(ctx, attempt-1); err != nil {
				lastErr = err
				break
			}
		}

		req := k.client.R().SetContext(ctx)
		if query != nil {
			req.SetQueryParams(query)
		}
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			lastErr = errors.Wrapf(err, "failed to request %s", path)
			k.logger.Error(fmt.Sprintf("[%s][client.Execute]", op), map[string]string{
				"error":   err.Error(),
				"attempt": strconv.Itoa(attempt),
			})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if !resp.IsSuccess() {
			lastErr = &StatusError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
			k.logger.Error(fmt.Sprintf("[%s][client.Execute]", op), map[string]string{
				"error":      lastErr.Error(),
				"statusCode": strconv.Itoa(resp.StatusCode()),
				"attempt":    strconv.Itoa(attempt),
			})
			if !retryable(resp.StatusCode()) {
				break
			}
			continue
		}

		if err := json.Unmarshal(resp.Body(), out); err != nil {
			lastErr = errors.Wrapf(err, "failed to parse %s response", path)
			k.logger.Error(fmt.Sprintf("[%s][json.Unmarshal]", op), map[string]string{
				"error":   err.Error(),
				"attempt": strconv.Itoa(attempt),
			})
			break
		}

		span.SetAttributes(attribute.Int("koios.attempts", attempt))
		return nil
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return lastErr
}

func (k *koios) wait(ctx context.Context, step int) error {
	if k.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(step) * k.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
