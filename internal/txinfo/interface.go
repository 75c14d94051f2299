package txinfo

import (
	"context"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type IResolver interface {
	// Resolve returns details for the hashes it could find, in request order
	Resolve(ctx context.Context, txHashes []string) ([]model.TxDetail, error)
}
