package cache

import (
	"context"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

// ITxDetailCache keeps confirmed transaction details keyed by network and hash
type ITxDetailCache interface {
	Get(ctx context.Context, network model.Network, txHash string) (*model.TxDetail, bool)
	Set(ctx context.Context, network model.Network, detail model.TxDetail) error
}

func key(network model.Network, txHash string) string {
	return "xray:txdetail:" + string(network) + ":" + txHash
}
