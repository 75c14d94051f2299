package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type memory struct {
	store *gocache.Cache
}

// NewMemory returns an in-process cache whose entries expire after ttl
func NewMemory(ttl time.Duration) ITxDetailCache {
	return &memory{
		store: gocache.New(ttl, 2*ttl),
	}
}

func (m *memory) Get(_ context.Context, network model.Network, txHash string) (*model.TxDetail, bool) {
	v, ok := m.store.Get(key(network, txHash))
	if !ok {
		return nil, false
	}
	detail := v.(model.TxDetail)
	return &detail, true
}

func (m *memory) Set(_ context.Context, network model.Network, detail model.TxDetail) error {
	m.store.SetDefault(key(network, detail.TxHash), detail)
	return nil
}
