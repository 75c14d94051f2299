package hostbridge

import (
	"encoding/json"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

const (
	TypeTip          = "xray.host.tip"
	TypeAccountState = "xray.host.accountState"
	TypeNetwork      = "xray.host.network"
	TypeTheme        = "xray.host.theme"
	TypeCurrency     = "xray.host.currency"
	TypeHideBalances = "xray.host.hideBalances"
	TypeExplorer     = "xray.host.explorer"

	TypeClientError = "xray.client.error"
)

// ConnectRequests are sent to the host once a session connects, asking it
// to push its current state.
var ConnectRequests = []string{
	"xray.client.getTip",
	"xray.client.getAccountState",
	"xray.client.getNetwork",
	"xray.client.getTheme",
	"xray.client.getCurrency",
	"xray.client.getHideBalances",
	"xray.client.getExplorer",
}

// Message is the {type, payload} envelope exchanged with the host
type Message struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type tipPayload struct {
	Tip *tipValue `json:"tip" validate:"required"`
}

type tipValue struct {
	BlockNo *int64 `json:"blockNo" validate:"required,gte=0"`
}

// a null account state means the wallet disconnected
type accountStatePayload struct {
	AccountState *model.AccountState `json:"accountState"`
}

type networkPayload struct {
	Network model.Network `json:"network" validate:"required,network"`
}

type themePayload struct {
	Theme string `json:"theme" validate:"required"`
}

type currencyPayload struct {
	Currency string `json:"currency" validate:"required"`
}

type hideBalancesPayload struct {
	HideBalances *bool `json:"hideBalances" validate:"required"`
}

type explorerPayload struct {
	Explorer model.Explorer `json:"explorer" validate:"required,explorer"`
}

// TipMessage builds the message the tip poller feeds into the bridge
func TipMessage(blockNo int64) Message {
	payload, _ := json.Marshal(tipPayload{Tip: &tipValue{BlockNo: &blockNo}})
	return Message{Type: TypeTip, Payload: payload}
}

func errorMessage(err error) Message {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Message{Type: TypeClientError, Payload: payload}
}
