package consts

const (
	ADA_DECIMALS = 6

	DEFAULT_PAGE_SIZE = 10
	// Koios caps a single /address_txs page at 1000 rows
	MAX_PAGE_SIZE = 1000

	DEFAULT_KOIOS_URL_TEMPLATE = "https://graph.xray.app/output/services/koios/{network}/api/v1"
)

// shown in place of amounts while the host asks to hide balances
const HIDDEN_BALANCE = "****"
