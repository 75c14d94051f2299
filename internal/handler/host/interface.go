package host

import "github.com/gin-gonic/gin"

type IHandler interface {
	// GetState returns what the host shell last told us
	GetState(c *gin.Context)

	// PostMessage applies one host message
	PostMessage(c *gin.Context)

	// Connect upgrades to a WebSocket host session
	Connect(c *gin.Context)
}
