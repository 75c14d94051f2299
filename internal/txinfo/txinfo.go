// Package txinfo resolves transaction details for one network, reading
// through the detail cache and the database before asking Koios.
package txinfo

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dwarvesf/xray-txhistory/internal/cache"
	"github.com/dwarvesf/xray-txhistory/internal/koios"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/monitoring"
	"github.com/dwarvesf/xray-txhistory/internal/store"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

const cacheType = "tx_detail"

type Resolver struct {
	network model.Network
	koios   koios.IKoios
	cache   cache.ITxDetailCache
	db      *gorm.DB
	store   *store.Store
	logger  *logger.Logger
	metrics *monitoring.BusinessMetricsRecorder
}

// New builds a resolver. cache, db and store may be nil.
func New(
	network model.Network,
	koiosClient koios.IKoios,
	detailCache cache.ITxDetailCache,
	db *gorm.DB,
	s *store.Store,
	logger *logger.Logger,
	metrics *monitoring.BusinessMetricsRecorder,
) *Resolver {
	return &Resolver{
		network: network,
		koios:   koiosClient,
		cache:   detailCache,
		db:      db,
		store:   s,
		logger:  logger,
		metrics: metrics,
	}
}

func (r *Resolver) Resolve(ctx context.Context, txHashes []string) ([]model.TxDetail, error) {
	if len(txHashes) == 0 {
		return []model.TxDetail{}, nil
	}

	start := time.Now()
	found := make(map[string]model.TxDetail, len(txHashes))

	missing := r.fromCache(ctx, txHashes, found)
	missing = r.fromStore(missing, found)

	if len(missing) > 0 {
		details, err := r.koios.TxInfo(ctx, missing)
		if err != nil {
			r.metrics.RecordDetailResolve("error", time.Since(start).Seconds())
			return nil, errors.Wrap(err, "fetch tx info")
		}

		confirmed := make([]model.TxDetail, 0, len(details))
		for _, d := range details {
			found[d.TxHash] = d
			if d.Confirmed() {
				confirmed = append(confirmed, d)
			}
		}
		r.remember(ctx, confirmed)
	}

	r.metrics.RecordDetailResolve("success", time.Since(start).Seconds())

	result := make([]model.TxDetail, 0, len(found))
	for _, h := range txHashes {
		if d, ok := found[h]; ok {
			result = append(result, d)
			delete(found, h)
		}
	}
	return result, nil
}

func (r *Resolver) fromCache(ctx context.Context, txHashes []string, found map[string]model.TxDetail) []string {
	if r.cache == nil {
		return txHashes
	}

	missing := make([]string, 0, len(txHashes))
	for _, h := range txHashes {
		if d, ok := r.cache.Get(ctx, r.network, h); ok {
			found[h] = *d
			r.metrics.RecordCacheOperation(cacheType, "hit")
			continue
		}
		r.metrics.RecordCacheOperation(cacheType, "miss")
		missing = append(missing, h)
	}
	return missing
}

// fromStore is best effort: a database failure falls through to Koios
func (r *Resolver) fromStore(txHashes []string, found map[string]model.TxDetail) []string {
	if r.db == nil || r.store == nil || len(txHashes) == 0 {
		return txHashes
	}

	start := time.Now()
	details, err := r.store.TxDetail.GetByHashes(r.db, r.network, txHashes)
	if err != nil {
		r.metrics.RecordDatabaseOperation("get_tx_details", "error", time.Since(start).Seconds())
		r.logger.Error("[Resolve][TxDetail.GetByHashes]", map[string]string{
			"error":   err.Error(),
			"network": string(r.network),
			"count":   strconv.Itoa(len(txHashes)),
		})
		return txHashes
	}
	r.metrics.RecordDatabaseOperation("get_tx_details", "success", time.Since(start).Seconds())

	for _, d := range details {
		found[d.TxHash] = d
	}

	missing := make([]string, 0, len(txHashes))
	for _, h := range txHashes {
		if _, ok := found[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// remember writes confirmed details back. Failures are logged only.
func (r *Resolver) remember(ctx context.Context, details []model.TxDetail) {
	if len(details) == 0 {
		return
	}

	if r.cache != nil {
		for _, d := range details {
			if err := r.cache.Set(ctx, r.network, d); err != nil {
				r.logger.Error("[Resolve][cache.Set]", map[string]string{
					"error":  err.Error(),
					"txHash": d.TxHash,
				})
			}
		}
	}

	if r.db == nil || r.store == nil {
		return
	}

	err := store.DoInTx(r.db, func(tx *gorm.DB) error {
		return r.store.TxDetail.Upsert(tx, r.network, details)
	})
	if err != nil {
		r.logger.Error("[Resolve][TxDetail.Upsert]", map[string]string{
			"error":   err.Error(),
			"network": string(r.network),
			"count":   strconv.Itoa(len(details)),
		})
	}
}
