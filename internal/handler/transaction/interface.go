package transaction

import (
	"github.com/gin-gonic/gin"
)

type IHandler interface {
	// GetTransactions renders the loaded history of the connected account
	GetTransactions(c *gin.Context)

	// GetTransaction renders one loaded transaction
	GetTransaction(c *gin.Context)

	// Refresh reloads the first page
	Refresh(c *gin.Context)

	// LoadMore appends the next page
	LoadMore(c *gin.Context)
}

type GetTransactionRequest struct {
	TxHash string `uri:"hash" binding:"required,hexadecimal,len=64"`
}
