package address

import (
	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	mainnetPrefix = "addr"
	testnetPrefix = "addr_test"
)

// IsPaymentAddress reports whether s is a bech32 Shelley payment address.
// Cardano addresses exceed the 90 character BIP-173 limit.
func IsPaymentAddress(s string) bool {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil || len(data) == 0 {
		return false
	}
	return hrp == mainnetPrefix || hrp == testnetPrefix
}
