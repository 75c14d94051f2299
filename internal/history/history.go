// Package history keeps the paged transaction list of one browsing session.
//
// Loads are serialised: a page is fetched summaries first, then its details.
// Refresh cancels whatever load is in flight and bumps a generation counter,
// so results of a superseded load are dropped instead of mixed into the new
// list. LoadMore waits for the in-flight load and then fetches the next page.
package history

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/consts"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/monitoring"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

var ErrNoAccount = errors.New("no account connected")

// Snapshot is a consistent copy of the loader state
type Snapshot struct {
	Address   string
	Summaries []model.TxSummary
	Details   map[string]model.TxDetail
	Offset    int
	PageSize  int
	HasMore   bool
	Loading   bool
	Loaded    bool
}

type Loader struct {
	// load serialises page loads
	load sync.Mutex

	mu         sync.RWMutex
	fetcher    Fetcher
	enricher   Enricher
	generation uint64
	genCtx     context.Context
	genCancel  context.CancelFunc
	address    string
	summaries  []model.TxSummary
	seen       map[string]struct{}
	details    map[string]model.TxDetail
	offset     int
	hasMore    bool
	loading    bool
	loaded     bool

	pageSize int
	logger   *logger.Logger
	metrics  *monitoring.BusinessMetricsRecorder
}

func New(fetcher Fetcher, enricher Enricher, pageSize int, logger *logger.Logger, metrics *monitoring.BusinessMetricsRecorder) *Loader {
	if pageSize <= 0 {
		pageSize = consts.DEFAULT_PAGE_SIZE
	}
	if pageSize > consts.MAX_PAGE_SIZE {
		pageSize = consts.MAX_PAGE_SIZE
	}

	l := &Loader{
		fetcher:  fetcher,
		enricher: enricher,
		pageSize: pageSize,
		logger:   logger,
		metrics:  metrics,
	}
	l.invalidateLocked("")
	return l
}

// Reset swaps the data sources, used when the network changes. The list is
// cleared and any in-flight load is abandoned.
func (l *Loader) Reset(fetcher Fetcher, enricher Enricher) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fetcher = fetcher
	l.enricher = enricher
	l.invalidateLocked("")
}

// Refresh clears the list and loads the first page for address.
func (l *Loader) Refresh(ctx context.Context, address string) error {
	start := time.Now()

	l.mu.Lock()
	gen := l.invalidateLocked(address)
	if address == "" {
		l.mu.Unlock()
		return ErrNoAccount
	}
	l.loading = true
	genCtx := l.genCtx
	l.mu.Unlock()

	l.load.Lock()
	defer l.load.Unlock()

	l.mu.RLock()
	done := gen != l.generation || l.loaded
	l.mu.RUnlock()
	if done {
		// superseded, or a queued LoadMore already fetched the first page
		return nil
	}

	loadCtx, cancel := withGeneration(ctx, genCtx)
	defer cancel()

	err := l.loadPage(loadCtx, gen, 0)
	l.record("refresh", err, start)
	return err
}

// LoadMore appends the next page. It waits for an in-flight load first and
// does nothing once the last page came back short.
func (l *Loader) LoadMore(ctx context.Context) error {
	start := time.Now()

	l.load.Lock()
	defer l.load.Unlock()

	l.mu.Lock()
	if l.address == "" {
		l.mu.Unlock()
		return ErrNoAccount
	}
	if l.loaded && !l.hasMore {
		l.mu.Unlock()
		return nil
	}
	gen := l.generation
	genCtx := l.genCtx
	next := 0
	if l.loaded {
		next = l.offset + l.pageSize
	}
	l.loading = true
	l.mu.Unlock()

	loadCtx, cancel := withGeneration(ctx, genCtx)
	defer cancel()

	err := l.loadPage(loadCtx, gen, next)
	l.record("load_more", err, start)
	return err
}

func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summaries := make([]model.TxSummary, len(l.summaries))
	copy(summaries, l.summaries)
	details := make(map[string]model.TxDetail, len(l.details))
	for k, v := range l.details {
		details[k] = v
	}

	return Snapshot{
		Address:   l.address,
		Summaries: summaries,
		Details:   details,
		Offset:    l.offset,
		PageSize:  l.pageSize,
		HasMore:   l.hasMore,
		Loading:   l.loading,
		Loaded:    l.loaded,
	}
}

// invalidateLocked starts a new generation for address. Callers hold mu.
func (l *Loader) invalidateLocked(address string) uint64 {
	if l.genCancel != nil {
		l.genCancel()
	}
	l.genCtx, l.genCancel = context.WithCancel(context.Background())
	l.generation++
	l.address = address
	l.summaries = nil
	l.seen = map[string]struct{}{}
	l.details = map[string]model.TxDetail{}
	l.offset = 0
	l.hasMore = false
	l.loading = false
	l.loaded = false
	return l.generation
}

// loadPage fetches one page at offset and merges it if gen is still current.
// The offset only advances when the summaries arrived.
func (l *Loader) loadPage(ctx context.Context, gen uint64, offset int) error {
	l.mu.RLock()
	fetcher, enricher, address := l.fetcher, l.enricher, l.address
	stale := gen != l.generation
	l.mu.RUnlock()
	if stale {
		return nil
	}

	summaries, err := fetcher.AddressTxs(ctx, []string{address}, l.pageSize, offset)
	if err != nil {
		l.finish(gen)
		if l.superseded(gen) {
			return nil
		}
		l.logger.Error("[LoadPage][fetcher.AddressTxs]", map[string]string{
			"error":  err.Error(),
			"offset": strconv.Itoa(offset),
		})
		return errors.Wrap(err, "load transactions")
	}

	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		return nil
	}
	fresh := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if _, dup := l.seen[s.TxHash]; dup {
			continue
		}
		l.seen[s.TxHash] = struct{}{}
		l.summaries = append(l.summaries, s)
		fresh = append(fresh, s.TxHash)
	}
	l.offset = offset
	l.loaded = true
	l.hasMore = len(summaries) == l.pageSize
	l.mu.Unlock()

	details, err := enricher.Resolve(ctx, fresh)
	if err != nil {
		l.finish(gen)
		if l.superseded(gen) {
			return nil
		}
		// summaries stay, their rows keep rendering as loading
		l.logger.Error("[LoadPage][enricher.Resolve]", map[string]string{
			"error": err.Error(),
			"count": strconv.Itoa(len(fresh)),
		})
		return errors.Wrap(err, "load transaction details")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return nil
	}
	for _, d := range details {
		l.details[d.TxHash] = d
	}
	l.loading = false
	return nil
}

// withGeneration derives a context from the caller that is also cancelled
// when the generation ends.
func withGeneration(ctx, genCtx context.Context) (context.Context, context.CancelFunc) {
	loadCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(genCtx, cancel)
	return loadCtx, func() {
		stop()
		cancel()
	}
}

func (l *Loader) finish(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen == l.generation {
		l.loading = false
	}
}

func (l *Loader) superseded(gen uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return gen != l.generation
}

func (l *Loader) record(kind string, err error, start time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	l.metrics.RecordHistoryLoad(kind, status, time.Since(start).Seconds())
}
