package model

// AccountState is the active wallet account as pushed by the host shell.
type AccountState struct {
	PaymentAddress string `json:"paymentAddress" validate:"required,bech32addr"`
	StakeAddress   string `json:"stakeAddress,omitempty"`
	AccountName    string `json:"accountName,omitempty"`
}

// HostState mirrors what the host shell last told us. Every field is
// replaced verbatim by its matching host message.
type HostState struct {
	Tip          *int64        `json:"tip"`
	AccountState *AccountState `json:"account_state"`
	Network      Network       `json:"network"`
	Theme        string        `json:"theme"`
	Currency     string        `json:"currency"`
	HideBalances bool          `json:"hide_balances"`
	Explorer     Explorer      `json:"explorer"`
}

// PaymentAddress is empty when no account is connected.
func (s HostState) PaymentAddress() string {
	if s.AccountState == nil {
		return ""
	}
	return s.AccountState.PaymentAddress
}
