package controller

import (
	"context"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type IController interface {
	// Transactions renders the loaded history of the connected account
	Transactions() (*model.TxPage, error)

	// Transaction renders one loaded transaction
	Transaction(txHash string) (*model.TxRow, error)

	// Refresh reloads the first page for the connected account
	Refresh(ctx context.Context) error

	// LoadMore appends the next page
	LoadMore(ctx context.Context) error

	HostState() model.HostState
}
