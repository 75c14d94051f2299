package koios

import (
	"context"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type IKoios interface {
	// AddressTxs returns one page of transactions touching the addresses,
	// newest first
	AddressTxs(ctx context.Context, addresses []string, limit, offset int) ([]model.TxSummary, error)

	// TxInfo returns details with inputs and assets for the given hashes
	TxInfo(ctx context.Context, txHashes []string) ([]model.TxDetail, error)

	// Tip returns the latest block known to the indexer
	Tip(ctx context.Context) (*model.Tip, error)
}
