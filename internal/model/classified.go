package model

type TxType string

const (
	TxTypeSend     TxType = "send"
	TxTypeReceive  TxType = "receive"
	TxTypeInternal TxType = "internal"
)

type AssetAmount struct {
	PolicyID  string   `json:"policy_id"`
	AssetName string   `json:"asset_name"`
	Quantity  Quantity `json:"quantity"`
	Decimals  int      `json:"decimals"`
}

// ClassifiedTx is a transaction seen from one wallet address. It is derived
// on every render and never stored.
type ClassifiedTx struct {
	Type   TxType        `json:"type"`
	Value  Quantity      `json:"value"`
	Assets []AssetAmount `json:"assets"`
}

func (c ClassifiedTx) Label() string {
	suffix := ""
	if len(c.Assets) > 0 {
		suffix = " + Assets"
	}

	switch c.Type {
	case TxTypeSend:
		return "Sent ADA" + suffix
	case TxTypeReceive:
		return "Received ADA" + suffix
	default:
		return "Internal Transfer"
	}
}
