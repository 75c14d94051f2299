package transaction

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/xray-txhistory/internal/controller"
	"github.com/dwarvesf/xray-txhistory/internal/history"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
	"github.com/dwarvesf/xray-txhistory/internal/view"
)

type transactionHandler struct {
	controller controller.IController
	logger     *logger.Logger
}

func New(controller controller.IController, logger *logger.Logger) IHandler {
	return &transactionHandler{
		controller: controller,
		logger:     logger,
	}
}

// GetTransactions godoc
// @Summary Transaction history
// @Description Rows of the loaded pages for the connected account, newest first. Rows still waiting for their detail have loading set.
// @id getTransactions
// @Tags Transactions
// @Produce json
// @Success 200 {object} view.Response[model.TxPage]
// @Failure 500 {object} view.ErrorResponse
// @Router /transactions [get]
func (h *transactionHandler) GetTransactions(c *gin.Context) {
	page, err := h.controller.Transactions()
	if err != nil {
		h.logger.Error("[GetTransactions][Transactions]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(statusOf(err, http.StatusInternalServerError), view.CreateResponse[any](nil, err, nil, "can't render transactions"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[*model.TxPage](page, nil, nil, ""))
}

// GetTransaction godoc
// @Summary Transaction detail
// @Description One loaded transaction with its inputs and outputs
// @id getTransaction
// @Tags Transactions
// @Produce json
// @Param hash path string true "transaction hash"
// @Success 200 {object} view.Response[model.TxRow]
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /transactions/{hash} [get]
func (h *transactionHandler) GetTransaction(c *gin.Context) {
	var req GetTransactionRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "invalid transaction hash"))
		return
	}

	row, err := h.controller.Transaction(req.TxHash)
	if err != nil {
		if !errors.Is(err, controller.ErrNotFound) {
			h.logger.Error("[GetTransaction][Transaction]", map[string]string{
				"error":  err.Error(),
				"txHash": req.TxHash,
			})
		}
		c.JSON(statusOf(err, http.StatusInternalServerError), view.CreateResponse[any](nil, err, nil, "can't render transaction"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[*model.TxRow](row, nil, nil, ""))
}

// Refresh godoc
// @Summary Reload history
// @Description Clears the list and loads the first page for the connected account. A refresh already in flight is abandoned.
// @id refreshTransactions
// @Tags Transactions
// @Produce json
// @Success 200 {object} view.Response[model.TxPage]
// @Failure 409 {object} view.ErrorResponse
// @Failure 502 {object} view.ErrorResponse
// @Failure 503 {object} view.ErrorResponse
// @Router /transactions/refresh [post]
func (h *transactionHandler) Refresh(c *gin.Context) {
	if err := h.controller.Refresh(c.Request.Context()); err != nil {
		c.JSON(statusOf(err, http.StatusBadGateway), view.CreateResponse[any](nil, err, nil, "can't load transactions"))
		return
	}
	h.GetTransactions(c)
}

// LoadMore godoc
// @Summary Load next page
// @Description Appends the next page of transactions. Does nothing once the last page was reached.
// @id loadMoreTransactions
// @Tags Transactions
// @Produce json
// @Success 200 {object} view.Response[model.TxPage]
// @Failure 409 {object} view.ErrorResponse
// @Failure 502 {object} view.ErrorResponse
// @Failure 503 {object} view.ErrorResponse
// @Router /transactions/load-more [post]
func (h *transactionHandler) LoadMore(c *gin.Context) {
	if err := h.controller.LoadMore(c.Request.Context()); err != nil {
		c.JSON(statusOf(err, http.StatusBadGateway), view.CreateResponse[any](nil, err, nil, "can't load more transactions"))
		return
	}
	h.GetTransactions(c)
}

// statusOf maps domain errors to HTTP statuses, fallback for the rest
func statusOf(err error, fallback int) int {
	switch {
	case errors.Is(err, controller.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrNoAccount):
		return http.StatusConflict
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	return fallback
}
