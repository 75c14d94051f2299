package model

type ConfirmationLevel string

const (
	ConfirmationLow    ConfirmationLevel = "low"
	ConfirmationMedium ConfirmationLevel = "medium"
	ConfirmationHigh   ConfirmationLevel = "high"
)

func ConfirmationLevelOf(confirmations int64) ConfirmationLevel {
	switch {
	case confirmations <= 3:
		return ConfirmationLow
	case confirmations <= 9:
		return ConfirmationMedium
	default:
		return ConfirmationHigh
	}
}

// TxRow is one entry of the rendered transaction history. Fields after
// Loading are only set once the transaction detail is known.
type TxRow struct {
	TxHash    string `json:"tx_hash"`
	BlockTime int64  `json:"block_time"`
	Loading   bool   `json:"loading"`

	Type              TxType            `json:"type,omitempty"`
	Label             string            `json:"label,omitempty"`
	Value             string            `json:"value,omitempty"`
	ValueADA          string            `json:"value_ada,omitempty"`
	Assets            []RowAsset        `json:"assets,omitempty"`
	Fee               string            `json:"fee,omitempty"`
	FeeADA            string            `json:"fee_ada,omitempty"`
	TotalOutput       string            `json:"total_output,omitempty"`
	BlockHash         string            `json:"block_hash,omitempty"`
	BlockHeight       int64             `json:"block_height,omitempty"`
	EpochNo           int64             `json:"epoch_no,omitempty"`
	EpochSlot         int64             `json:"epoch_slot,omitempty"`
	AbsoluteSlot      int64             `json:"absolute_slot,omitempty"`
	TxTimestamp       int64             `json:"tx_timestamp,omitempty"`
	TxBlockIndex      int64             `json:"tx_block_index,omitempty"`
	TxSize            int64             `json:"tx_size,omitempty"`
	Confirmations     int64             `json:"confirmations,omitempty"`
	ConfirmationLevel ConfirmationLevel `json:"confirmation_level,omitempty"`
	InvalidAfter      string            `json:"invalid_after,omitempty"`
	InvalidAfterTime  int64             `json:"invalid_after_time,omitempty"`
	Inputs            []RowUTXO         `json:"inputs,omitempty"`
	Outputs           []RowUTXO         `json:"outputs,omitempty"`
	ExplorerURL       string            `json:"explorer_url,omitempty"`
}

type RowAsset struct {
	PolicyID  string `json:"policy_id"`
	AssetName string `json:"asset_name"`
	Quantity  string `json:"quantity"`
	Decimals  int    `json:"decimals"`
}

type RowUTXO struct {
	Address string     `json:"address"`
	TxHash  string     `json:"tx_hash"`
	TxIndex int        `json:"tx_index"`
	Value   string     `json:"value"`
	Assets  []RowAsset `json:"assets,omitempty"`
	Own     bool       `json:"own"`
}

type EmptyState string

const (
	EmptyStateNone                EmptyState = ""
	EmptyStateAccountNotConnected EmptyState = "account_not_connected"
	EmptyStateNoTransactions      EmptyState = "no_transactions"
)

// TxPage is the whole history view: rows in load order plus paging state.
type TxPage struct {
	Rows       []TxRow    `json:"rows"`
	Offset     int        `json:"offset"`
	PageSize   int        `json:"page_size"`
	HasMore    bool       `json:"has_more"`
	Loading    bool       `json:"loading"`
	EmptyState EmptyState `json:"empty_state,omitempty"`
	Network    Network    `json:"network"`
	Address    string     `json:"address,omitempty"`
}
