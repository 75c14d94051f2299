package history

import (
	"context"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

// Fetcher lists transaction summaries for addresses, newest first
type Fetcher interface {
	AddressTxs(ctx context.Context, addresses []string, limit, offset int) ([]model.TxSummary, error)
}

// Enricher turns hashes into transaction details
type Enricher interface {
	Resolve(ctx context.Context, txHashes []string) ([]model.TxDetail, error)
}

type ILoader interface {
	Refresh(ctx context.Context, address string) error
	LoadMore(ctx context.Context) error
	Reset(fetcher Fetcher, enricher Enricher)
	Snapshot() Snapshot
}
