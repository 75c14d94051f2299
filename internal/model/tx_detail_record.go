package model

import "time"

// TxDetailRecord persists a confirmed transaction detail as a jsonb payload.
type TxDetailRecord struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Network     string    `json:"network"`
	TxHash      string    `json:"tx_hash"`
	BlockHeight int64     `json:"block_height"`
	Payload     []byte    `json:"payload" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (TxDetailRecord) TableName() string {
	return "tx_details"
}
