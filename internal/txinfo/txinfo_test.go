package txinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dwarvesf/xray-txhistory/internal/cache"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/store"
	"github.com/dwarvesf/xray-txhistory/internal/types/environments"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

type mockKoios struct {
	mock.Mock
}

func (m *mockKoios) AddressTxs(ctx context.Context, addresses []string, limit, offset int) ([]model.TxSummary, error) {
	args := m.Called(ctx, addresses, limit, offset)
	return args.Get(0).([]model.TxSummary), args.Error(1)
}

func (m *mockKoios) TxInfo(ctx context.Context, txHashes []string) ([]model.TxDetail, error) {
	args := m.Called(ctx, txHashes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TxDetail), args.Error(1)
}

func (m *mockKoios) Tip(ctx context.Context) (*model.Tip, error) {
	args := m.Called(ctx)
	return args.Get(0).(*model.Tip), args.Error(1)
}

type fakeStore struct {
	rows     map[string]model.TxDetail
	upserted []model.TxDetail
	getErr   error
}

func (f *fakeStore) GetByHashes(_ *gorm.DB, _ model.Network, txHashes []string) ([]model.TxDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	var out []model.TxDetail
	for _, h := range txHashes {
		if d, ok := f.rows[h]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) Upsert(_ *gorm.DB, _ model.Network, details []model.TxDetail) error {
	f.upserted = append(f.upserted, details...)
	return nil
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, sqlMock
}

func detail(hash string, height int64) model.TxDetail {
	return model.TxDetail{TxHash: hash, BlockHeight: height}
}

func testLogger() *logger.Logger {
	return logger.New(environments.Test)
}

func TestResolve_EmptyDoesNothing(t *testing.T) {
	k := &mockKoios{}
	r := New(model.NetworkMainnet, k, nil, nil, nil, testLogger(), nil)

	details, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, details)
	k.AssertNotCalled(t, "TxInfo", mock.Anything, mock.Anything)
}

func TestResolve_KeepsRequestOrderAndSkipsUnknown(t *testing.T) {
	k := &mockKoios{}
	k.On("TxInfo", mock.Anything, []string{"aa", "bb", "cc"}).
		Return([]model.TxDetail{detail("cc", 3), detail("aa", 1)}, nil)

	r := New(model.NetworkMainnet, k, nil, nil, nil, testLogger(), nil)

	details, err := r.Resolve(context.Background(), []string{"aa", "bb", "cc"})
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "aa", details[0].TxHash)
	assert.Equal(t, "cc", details[1].TxHash)
}

func TestResolve_CacheHitsSkipKoios(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(time.Minute)
	require.NoError(t, c.Set(ctx, model.NetworkPreprod, detail("aa", 10)))

	k := &mockKoios{}
	k.On("TxInfo", mock.Anything, []string{"bb"}).Return([]model.TxDetail{detail("bb", 11)}, nil)

	r := New(model.NetworkPreprod, k, c, nil, nil, testLogger(), nil)

	details, err := r.Resolve(ctx, []string{"aa", "bb"})
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "aa", details[0].TxHash)
	assert.Equal(t, "bb", details[1].TxHash)

	_, cached := c.Get(ctx, model.NetworkPreprod, "bb")
	assert.True(t, cached)
	k.AssertExpectations(t)
}

func TestResolve_UnconfirmedIsNotRemembered(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(time.Minute)

	k := &mockKoios{}
	k.On("TxInfo", mock.Anything, []string{"pending"}).Return([]model.TxDetail{detail("pending", 0)}, nil)

	r := New(model.NetworkMainnet, k, c, nil, nil, testLogger(), nil)

	details, err := r.Resolve(ctx, []string{"pending"})
	require.NoError(t, err)
	require.Len(t, details, 1)

	_, cached := c.Get(ctx, model.NetworkMainnet, "pending")
	assert.False(t, cached)
}

func TestResolve_StoreThenKoiosThenWriteBack(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()

	fs := &fakeStore{rows: map[string]model.TxDetail{"aa": detail("aa", 5)}}
	s := &store.Store{TxDetail: fs}

	k := &mockKoios{}
	k.On("TxInfo", mock.Anything, []string{"bb", "cc"}).
		Return([]model.TxDetail{detail("bb", 6), detail("cc", 0)}, nil)

	r := New(model.NetworkMainnet, k, nil, db, s, testLogger(), nil)

	details, err := r.Resolve(context.Background(), []string{"aa", "bb", "cc"})
	require.NoError(t, err)
	require.Len(t, details, 3)

	require.Len(t, fs.upserted, 1)
	assert.Equal(t, "bb", fs.upserted[0].TxHash)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestResolve_StoreFailureFallsBackToKoios(t *testing.T) {
	db, _ := newMockDB(t)
	fs := &fakeStore{getErr: errors.New("relation does not exist")}

	k := &mockKoios{}
	k.On("TxInfo", mock.Anything, []string{"aa"}).Return([]model.TxDetail{detail("aa", 0)}, nil)

	r := New(model.NetworkMainnet, k, nil, db, &store.Store{TxDetail: fs}, testLogger(), nil)

	details, err := r.Resolve(context.Background(), []string{"aa"})
	require.NoError(t, err)
	assert.Len(t, details, 1)
}

func TestResolve_KoiosFailure(t *testing.T) {
	k := &mockKoios{}
	k.On("TxInfo", mock.Anything, []string{"aa"}).Return(nil, errors.New("status code: 502"))

	r := New(model.NetworkMainnet, k, nil, nil, nil, testLogger(), nil)

	_, err := r.Resolve(context.Background(), []string{"aa"})
	assert.Error(t, err)
}
