package store

import (
	"github.com/dwarvesf/xray-txhistory/internal/store/txdetail"
)

type Store struct {
	TxDetail txdetail.IStore
}

func New() *Store {
	return &Store{
		TxDetail: txdetail.New(),
	}
}
