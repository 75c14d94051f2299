package model

// TxSummary is one row of Koios /address_txs.
type TxSummary struct {
	TxHash      string `json:"tx_hash"`
	EpochNo     int64  `json:"epoch_no"`
	BlockHeight int64  `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

type PaymentAddr struct {
	Bech32 string `json:"bech32"`
	Cred   string `json:"cred"`
}

type Asset struct {
	PolicyID    string   `json:"policy_id"`
	AssetName   string   `json:"asset_name"`
	Fingerprint string   `json:"fingerprint"`
	Decimals    int      `json:"decimals"`
	Quantity    Quantity `json:"quantity"`
}

// UTXO is a transaction input or output as returned by Koios /tx_info.
type UTXO struct {
	PaymentAddr *PaymentAddr `json:"payment_addr"`
	StakeAddr   string       `json:"stake_addr"`
	TxHash      string       `json:"tx_hash"`
	TxIndex     int          `json:"tx_index"`
	Value       Quantity     `json:"value"`
	AssetList   []Asset      `json:"asset_list"`
}

// Address returns the bech32 payment address, empty when Koios omits it.
func (u UTXO) Address() string {
	if u.PaymentAddr == nil {
		return ""
	}
	return u.PaymentAddr.Bech32
}

// TxDetail is one row of Koios /tx_info requested with inputs and assets.
type TxDetail struct {
	TxHash        string   `json:"tx_hash"`
	BlockHash     string   `json:"block_hash"`
	BlockHeight   int64    `json:"block_height"`
	EpochNo       int64    `json:"epoch_no"`
	EpochSlot     int64    `json:"epoch_slot"`
	AbsoluteSlot  int64    `json:"absolute_slot"`
	TxTimestamp   int64    `json:"tx_timestamp"`
	TxBlockIndex  int64    `json:"tx_block_index"`
	TxSize        int64    `json:"tx_size"`
	TotalOutput   Quantity `json:"total_output"`
	Fee           Quantity `json:"fee"`
	Deposit       Quantity `json:"deposit"`
	InvalidBefore string   `json:"invalid_before"`
	InvalidAfter  string   `json:"invalid_after"`
	Inputs        []UTXO   `json:"inputs"`
	Outputs       []UTXO   `json:"outputs"`
}

// Confirmed reports whether the transaction made it into a block.
func (d TxDetail) Confirmed() bool {
	return d.BlockHeight > 0
}

// Tip is the first row of Koios /tip.
type Tip struct {
	Hash        string `json:"hash"`
	EpochNo     int64  `json:"epoch_no"`
	AbsSlot     int64  `json:"abs_slot"`
	EpochSlot   int64  `json:"epoch_slot"`
	BlockHeight int64  `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}
