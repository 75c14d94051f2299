package model

import (
	"fmt"
	"strconv"
)

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkPreprod Network = "preprod"
	NetworkPreview Network = "preview"
)

func (n Network) Valid() bool {
	switch n {
	case NetworkMainnet, NetworkPreprod, NetworkPreview:
		return true
	}
	return false
}

type slotConfig struct {
	zeroTime int64
	zeroSlot int64
}

// Shelley-era slot origins, one-second slots on every network.
var slotConfigs = map[Network]slotConfig{
	NetworkMainnet: {zeroTime: 1596059091, zeroSlot: 4492800},
	NetworkPreprod: {zeroTime: 1655769600, zeroSlot: 86400},
	NetworkPreview: {zeroTime: 1666656000, zeroSlot: 0},
}

// SlotToUnixTime converts an absolute slot to unix seconds. It returns 0 for
// unknown networks or unparsable slots.
func (n Network) SlotToUnixTime(slot string) int64 {
	cfg, ok := slotConfigs[n]
	if !ok || slot == "" {
		return 0
	}
	s, err := strconv.ParseInt(slot, 10, 64)
	if err != nil {
		return 0
	}
	return cfg.zeroTime + (s - cfg.zeroSlot)
}

type Explorer string

const (
	ExplorerCardanoscan Explorer = "cardanoscan"
	ExplorerCexplorer   Explorer = "cexplorer"
	ExplorerAdastat     Explorer = "adastat"
)

func (e Explorer) Valid() bool {
	switch e {
	case ExplorerCardanoscan, ExplorerCexplorer, ExplorerAdastat:
		return true
	}
	return false
}

// TxURL links a transaction on the preferred explorer. Unknown explorers fall
// back to cardanoscan.
func (e Explorer) TxURL(network Network, txHash string) string {
	if txHash == "" || !network.Valid() {
		return ""
	}

	prefix := ""
	if network != NetworkMainnet {
		prefix = string(network) + "."
	}

	switch e {
	case ExplorerCexplorer:
		return fmt.Sprintf("https://%scexplorer.io/tx/%s", prefix, txHash)
	case ExplorerAdastat:
		return fmt.Sprintf("https://%sadastat.net/transactions/%s", prefix, txHash)
	default:
		return fmt.Sprintf("https://%scardanoscan.io/transaction/%s", prefix, txHash)
	}
}
