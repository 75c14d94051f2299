package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/types/environments"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

const wallet = "addr_test1qpwallet"

type fakeChain struct {
	mu       sync.Mutex
	txs      map[string][]model.TxSummary
	calls    []int
	fetchErr error
	// gate, when set, blocks AddressTxs until it is closed or ctx ends
	gate chan struct{}
}

func newFakeChain(address string, count int) *fakeChain {
	txs := make([]model.TxSummary, count)
	for i := range txs {
		txs[i] = model.TxSummary{TxHash: fmt.Sprintf("%s-%03d", address, i), BlockTime: int64(1000 - i)}
	}
	return &fakeChain{txs: map[string][]model.TxSummary{address: txs}}
}

func (f *fakeChain) AddressTxs(ctx context.Context, addresses []string, limit, offset int) ([]model.TxSummary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	gate := f.gate
	fetchErr := f.fetchErr
	all := f.txs[addresses[0]]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	if offset >= len(all) {
		return []model.TxSummary{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]model.TxSummary, end-offset)
	copy(out, all[offset:end])
	return out, nil
}

func (f *fakeChain) offsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

type fakeEnricher struct {
	mu  sync.Mutex
	err error
}

func (e *fakeEnricher) Resolve(_ context.Context, txHashes []string) ([]model.TxDetail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([]model.TxDetail, 0, len(txHashes))
	for _, h := range txHashes {
		out = append(out, model.TxDetail{TxHash: h, BlockHeight: 1})
	}
	return out, nil
}

func hashes(s Snapshot) []string {
	out := make([]string, 0, len(s.Summaries))
	for _, tx := range s.Summaries {
		out = append(out, tx.TxHash)
	}
	return out
}

var _ = Describe("Loader", func() {
	var (
		chain    *fakeChain
		enricher *fakeEnricher
		loader   *Loader
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		chain = newFakeChain(wallet, 25)
		enricher = &fakeEnricher{}
		loader = New(chain, enricher, 10, logger.New(environments.Test), nil)
	})

	Describe("Refresh", func() {
		It("loads the first page with details", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())

			s := loader.Snapshot()
			Expect(s.Summaries).To(HaveLen(10))
			Expect(s.Details).To(HaveLen(10))
			Expect(s.Offset).To(Equal(0))
			Expect(s.HasMore).To(BeTrue())
			Expect(s.Loading).To(BeFalse())
			Expect(s.Address).To(Equal(wallet))
		})

		It("rejects a missing account and clears the list", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())

			err := loader.Refresh(ctx, "")
			Expect(errors.Is(err, ErrNoAccount)).To(BeTrue())
			Expect(loader.Snapshot().Summaries).To(BeEmpty())
		})

		It("discards what was loaded before", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())
			Expect(loader.LoadMore(ctx)).To(Succeed())
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())

			s := loader.Snapshot()
			Expect(s.Summaries).To(HaveLen(10))
			Expect(s.Offset).To(Equal(0))
		})
	})

	Describe("LoadMore", func() {
		It("appends the next page in order without duplicates", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())
			Expect(loader.LoadMore(ctx)).To(Succeed())

			s := loader.Snapshot()
			Expect(s.Summaries).To(HaveLen(20))
			Expect(s.Offset).To(Equal(10))
			for i, h := range hashes(s) {
				Expect(h).To(Equal(fmt.Sprintf("%s-%03d", wallet, i)))
			}
			Expect(chain.offsets()).To(Equal([]int{0, 10}))
		})

		It("stops having more after a short page", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())
			Expect(loader.LoadMore(ctx)).To(Succeed())
			Expect(loader.LoadMore(ctx)).To(Succeed())

			s := loader.Snapshot()
			Expect(s.Summaries).To(HaveLen(25))
			Expect(s.HasMore).To(BeFalse())

			Expect(loader.LoadMore(ctx)).To(Succeed())
			Expect(chain.offsets()).To(Equal([]int{0, 10, 20}))
		})

		It("skips hashes that are already listed", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())

			// a new transaction shifts the history by one
			chain.mu.Lock()
			shifted := append([]model.TxSummary{{TxHash: "newest"}}, chain.txs[wallet]...)
			chain.txs[wallet] = shifted
			chain.mu.Unlock()

			Expect(loader.LoadMore(ctx)).To(Succeed())

			s := loader.Snapshot()
			Expect(s.Summaries).To(HaveLen(19))
			Expect(hashes(s)).NotTo(ContainElement("newest"))
			seen := map[string]bool{}
			for _, h := range hashes(s) {
				Expect(seen[h]).To(BeFalse())
				seen[h] = true
			}
		})

		It("requires an account", func() {
			Expect(errors.Is(loader.LoadMore(ctx), ErrNoAccount)).To(BeTrue())
		})

		It("keeps the offset when the page fails", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())

			chain.mu.Lock()
			chain.fetchErr = errors.New("status code: 502")
			chain.mu.Unlock()
			Expect(loader.LoadMore(ctx)).NotTo(Succeed())
			Expect(loader.Snapshot().Offset).To(Equal(0))

			chain.mu.Lock()
			chain.fetchErr = nil
			chain.mu.Unlock()
			Expect(loader.LoadMore(ctx)).To(Succeed())

			s := loader.Snapshot()
			Expect(s.Offset).To(Equal(10))
			Expect(s.Summaries).To(HaveLen(20))
			Expect(chain.offsets()).To(Equal([]int{0, 10, 10}))
		})
	})

	Describe("detail failures", func() {
		It("keeps the summaries without details", func() {
			enricher.err = errors.New("tx_info down")

			Expect(loader.Refresh(ctx, wallet)).NotTo(Succeed())

			s := loader.Snapshot()
			Expect(s.Summaries).To(HaveLen(10))
			Expect(s.Details).To(BeEmpty())
			Expect(s.Loading).To(BeFalse())
		})
	})

	Describe("concurrent loads", func() {
		It("drops the result of a load superseded by a refresh", func() {
			other := "addr_test1qpother"
			chain.mu.Lock()
			chain.txs[other] = []model.TxSummary{{TxHash: "other-0"}}
			chain.gate = make(chan struct{})
			chain.mu.Unlock()

			firstDone := make(chan error, 1)
			go func() {
				firstDone <- loader.Refresh(ctx, wallet)
			}()
			Eventually(chain.offsets).Should(HaveLen(1))

			// the second refresh cancels the blocked first one
			chain.mu.Lock()
			chain.gate = nil
			chain.mu.Unlock()
			Expect(loader.Refresh(ctx, other)).To(Succeed())
			Eventually(firstDone, time.Second).Should(Receive(BeNil()))

			s := loader.Snapshot()
			Expect(s.Address).To(Equal(other))
			Expect(hashes(s)).To(Equal([]string{"other-0"}))
		})

		It("serialises load more behind an in-flight refresh", func() {
			gate := make(chan struct{})
			chain.mu.Lock()
			chain.gate = gate
			chain.mu.Unlock()

			refreshDone := make(chan error, 1)
			go func() {
				refreshDone <- loader.Refresh(ctx, wallet)
			}()
			Eventually(chain.offsets).Should(HaveLen(1))

			moreDone := make(chan error, 1)
			go func() {
				moreDone <- loader.LoadMore(ctx)
			}()
			Consistently(moreDone, 50*time.Millisecond).ShouldNot(Receive())

			close(gate)
			Eventually(refreshDone, time.Second).Should(Receive(BeNil()))
			Eventually(moreDone, time.Second).Should(Receive(BeNil()))

			Expect(chain.offsets()).To(Equal([]int{0, 10}))
			Expect(loader.Snapshot().Summaries).To(HaveLen(20))
		})

		It("abandons the list when the sources are reset", func() {
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())

			loader.Reset(newFakeChain(wallet, 3), enricher)

			s := loader.Snapshot()
			Expect(s.Summaries).To(BeEmpty())
			Expect(s.Address).To(BeEmpty())
			Expect(loader.Refresh(ctx, wallet)).To(Succeed())
			Expect(loader.Snapshot().Summaries).To(HaveLen(3))
		})
	})
})
