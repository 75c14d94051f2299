package txdetail

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type Store struct {
}

func New() IStore {
	return &Store{}
}

func (s *Store) GetByHashes(tx *gorm.DB, network model.Network, txHashes []string) ([]model.TxDetail, error) {
	if len(txHashes) == 0 {
		return []model.TxDetail{}, nil
	}

	var records []model.TxDetailRecord
	err := tx.Where("network = ? AND tx_hash IN ?", string(network), txHashes).Find(&records).Error
	if err != nil {
		return nil, err
	}

	details := make([]model.TxDetail, 0, len(records))
	for _, r := range records {
		var d model.TxDetail
		if err := json.Unmarshal(r.Payload, &d); err != nil {
			return nil, errors.Wrapf(err, "decode stored tx %s", r.TxHash)
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *Store) Upsert(tx *gorm.DB, network model.Network, details []model.TxDetail) error {
	if len(details) == 0 {
		return nil
	}

	records := make([]model.TxDetailRecord, 0, len(details))
	for _, d := range details {
		payload, err := json.Marshal(d)
		if err != nil {
			return errors.Wrapf(err, "encode tx %s", d.TxHash)
		}
		records = append(records, model.TxDetailRecord{
			Network:     string(network),
			TxHash:      d.TxHash,
			BlockHeight: d.BlockHeight,
			Payload:     payload,
		})
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "network"}, {Name: "tx_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"block_height", "payload", "updated_at"}),
	}).Create(&records).Error
}
