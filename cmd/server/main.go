package main

import (
	"github.com/dwarvesf/xray-txhistory/internal/server"
)

// @title xray tx history API
// @version 1.0
// @description Transaction history of the wallet account connected in the host shell, backed by Koios.
// @BasePath /api/v1
func main() {
	server.Init()
}
