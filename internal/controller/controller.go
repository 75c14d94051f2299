package controller

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/history"
	"github.com/dwarvesf/xray-txhistory/internal/hostbridge"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

var ErrNotFound = errors.New("transaction not found")

// SourceFactory builds the Koios backed fetcher and enricher for a network
type SourceFactory func(network model.Network) (history.Fetcher, history.Enricher)

type Controller struct {
	bridge  hostbridge.IBridge
	loader  history.ILoader
	sources SourceFactory
	logger  *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New binds the loader to the bridge's current network and follows host
// changes from then on: a network switch swaps the data sources, an account
// switch reloads the first page.
func New(
	bridge hostbridge.IBridge,
	loader history.ILoader,
	sources SourceFactory,
	logger *logger.Logger,
) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		bridge:  bridge,
		loader:  loader,
		sources: sources,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	state := bridge.State()
	c.loader.Reset(c.sources(state.Network))
	if state.PaymentAddress() != "" {
		c.refreshInBackground(state.PaymentAddress())
	}

	bridge.Subscribe(c.onHostChange)
	return c
}

func (c *Controller) HostState() model.HostState {
	return c.bridge.State()
}

func (c *Controller) Refresh(ctx context.Context) error {
	address := c.bridge.State().PaymentAddress()
	if err := c.loader.Refresh(ctx, address); err != nil {
		if !errors.Is(err, history.ErrNoAccount) {
			c.logger.Error("[Refresh][loader.Refresh]", map[string]string{
				"error":   err.Error(),
				"address": address,
			})
		}
		return err
	}
	return nil
}

func (c *Controller) LoadMore(ctx context.Context) error {
	if err := c.loader.LoadMore(ctx); err != nil {
		if !errors.Is(err, history.ErrNoAccount) {
			c.logger.Error("[LoadMore][loader.LoadMore]", map[string]string{
				"error": err.Error(),
			})
		}
		return err
	}
	return nil
}

func (c *Controller) Transactions() (*model.TxPage, error) {
	state := c.bridge.State()
	snapshot := c.loader.Snapshot()
	opts := optionsFrom(state)

	page := &model.TxPage{
		Rows:     make([]model.TxRow, 0, len(snapshot.Summaries)),
		Offset:   snapshot.Offset,
		PageSize: snapshot.PageSize,
		HasMore:  snapshot.HasMore,
		Loading:  snapshot.Loading,
		Network:  state.Network,
		Address:  snapshot.Address,
	}

	if opts.address == "" {
		page.EmptyState = model.EmptyStateAccountNotConnected
		return page, nil
	}
	if snapshot.Address != opts.address {
		// the reload for a new account has not started yet
		page.Address = opts.address
		page.Loading = true
		page.HasMore = false
		return page, nil
	}

	for _, summary := range snapshot.Summaries {
		row, err := buildRow(summary, detailOf(snapshot, summary.TxHash), opts)
		if err != nil {
			c.logger.Error("[Transactions][buildRow]", map[string]string{
				"error":  err.Error(),
				"txHash": summary.TxHash,
			})
			return nil, err
		}
		page.Rows = append(page.Rows, row)
	}

	if len(page.Rows) == 0 && snapshot.Loaded && !snapshot.Loading {
		page.EmptyState = model.EmptyStateNoTransactions
	}
	return page, nil
}

func (c *Controller) Transaction(txHash string) (*model.TxRow, error) {
	state := c.bridge.State()
	snapshot := c.loader.Snapshot()

	for _, summary := range snapshot.Summaries {
		if summary.TxHash != txHash {
			continue
		}
		row, err := buildRow(summary, detailOf(snapshot, txHash), optionsFrom(state))
		if err != nil {
			c.logger.Error("[Transaction][buildRow]", map[string]string{
				"error":  err.Error(),
				"txHash": txHash,
			})
			return nil, err
		}
		return &row, nil
	}
	return nil, ErrNotFound
}

// Close stops background reloads and waits for them to return
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) onHostChange(change hostbridge.Change) {
	if !change.NetworkChanged() && !change.AccountChanged() {
		return
	}

	// reload from the live state, a later change may already be applied
	current := c.bridge.State()
	if change.NetworkChanged() {
		c.logger.Info("[onHostChange] network switched", map[string]string{
			"from": string(change.Previous.Network),
			"to":   string(current.Network),
		})
		c.loader.Reset(c.sources(current.Network))
	}

	address := current.PaymentAddress()
	if address == "" {
		// clears the list, the empty state takes over
		_ = c.loader.Refresh(c.ctx, "")
		return
	}
	c.refreshInBackground(address)
}

func (c *Controller) refreshInBackground(address string) {
	if c.ctx.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.loader.Refresh(c.ctx, address); err != nil && c.ctx.Err() == nil {
			c.logger.Error("[refreshInBackground][loader.Refresh]", map[string]string{
				"error":   err.Error(),
				"address": address,
			})
		}
	}()
}

func detailOf(snapshot history.Snapshot, txHash string) *model.TxDetail {
	detail, ok := snapshot.Details[txHash]
	if !ok {
		return nil
	}
	return &detail
}
