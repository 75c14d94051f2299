package txdetail

import (
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestStore_GetByHashes(t *testing.T) {
	db, mock := newMockDB(t)

	payload, err := json.Marshal(model.TxDetail{
		TxHash:      "aa",
		BlockHeight: 77,
		Fee:         model.MustParseQuantity("200000"),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "tx_details" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "network", "tx_hash", "block_height", "payload"}).
			AddRow(1, "mainnet", "aa", 77, payload))

	details, err := New().GetByHashes(db, model.NetworkMainnet, []string{"aa", "bb"})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "aa", details[0].TxHash)
	assert.Equal(t, "200000", details[0].Fee.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetByHashes_EmptySkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)

	details, err := New().GetByHashes(db, model.NetworkMainnet, nil)
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetByHashes_CorruptPayload(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "tx_details" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tx_hash", "payload"}).
			AddRow(1, "aa", []byte("{")))

	_, err := New().GetByHashes(db, model.NetworkMainnet, []string{"aa"})
	assert.Error(t, err)
}

func TestStore_Upsert(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`INSERT INTO "tx_details" .* ON CONFLICT \("network","tx_hash"\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	err := New().Upsert(db, model.NetworkPreprod, []model.TxDetail{
		{TxHash: "aa", BlockHeight: 1},
		{TxHash: "bb", BlockHeight: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Upsert_Empty(t *testing.T) {
	db, mock := newMockDB(t)

	require.NoError(t, New().Upsert(db, model.NetworkPreprod, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
