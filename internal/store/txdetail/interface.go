package txdetail

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type IStore interface {
	// GetByHashes returns the stored details among txHashes, in no particular order
	GetByHashes(tx *gorm.DB, network model.Network, txHashes []string) ([]model.TxDetail, error)

	// Upsert stores confirmed details, replacing rows with the same hash
	Upsert(tx *gorm.DB, network model.Network, details []model.TxDetail) error
}
