package cache

import (
	"context"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type layered struct {
	layers []ITxDetailCache
}

// NewLayered reads through the layers in order and backfills the faster ones
// on a hit. Nil layers are skipped.
func NewLayered(layers ...ITxDetailCache) ITxDetailCache {
	l := &layered{}
	for _, c := range layers {
		if c != nil {
			l.layers = append(l.layers, c)
		}
	}
	return l
}

func (l *layered) Get(ctx context.Context, network model.Network, txHash string) (*model.TxDetail, bool) {
	for i, c := range l.layers {
		detail, ok := c.Get(ctx, network, txHash)
		if !ok {
			continue
		}
		for _, faster := range l.layers[:i] {
			_ = faster.Set(ctx, network, *detail)
		}
		return detail, true
	}
	return nil, false
}

func (l *layered) Set(ctx context.Context, network model.Network, detail model.TxDetail) error {
	var firstErr error
	for _, c := range l.layers {
		if err := c.Set(ctx, network, detail); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
