package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/xray-txhistory/internal/controller"
	"github.com/dwarvesf/xray-txhistory/internal/history"
	"github.com/dwarvesf/xray-txhistory/internal/koios"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/types/environments"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

var txHash = strings.Repeat("ab", 32)

type MockController struct {
	mock.Mock
}

func (m *MockController) Transactions() (*model.TxPage, error) {
	args := m.Called()
	page, _ := args.Get(0).(*model.TxPage)
	return page, args.Error(1)
}

func (m *MockController) Transaction(hash string) (*model.TxRow, error) {
	args := m.Called(hash)
	row, _ := args.Get(0).(*model.TxRow)
	return row, args.Error(1)
}

func (m *MockController) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockController) LoadMore(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockController) HostState() model.HostState {
	return m.Called().Get(0).(model.HostState)
}

func newRouter(ctrl controller.IController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(ctrl, logger.New(environments.Test))

	r := gin.New()
	r.GET("/transactions", h.GetTransactions)
	r.POST("/transactions/refresh", h.Refresh)
	r.POST("/transactions/load-more", h.LoadMore)
	r.GET("/transactions/:hash", h.GetTransaction)
	return r
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGetTransactions(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Transactions").Return(&model.TxPage{
		Rows:     []model.TxRow{{TxHash: txHash, Type: model.TxTypeSend, Value: "100"}},
		PageSize: 10,
		Network:  model.NetworkPreprod,
	}, nil)

	w := do(newRouter(ctrl), http.MethodGet, "/transactions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data model.TxPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Rows, 1)
	assert.Equal(t, model.TxTypeSend, body.Data.Rows[0].Type)
	assert.Equal(t, model.NetworkPreprod, body.Data.Network)
	ctrl.AssertExpectations(t)
}

func TestGetTransaction(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ctrl := new(MockController)
		ctrl.On("Transaction", txHash).Return(&model.TxRow{TxHash: txHash, Label: "Sent ADA"}, nil)

		w := do(newRouter(ctrl), http.MethodGet, "/transactions/"+txHash)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Sent ADA")
	})

	t.Run("not loaded", func(t *testing.T) {
		ctrl := new(MockController)
		ctrl.On("Transaction", txHash).Return(nil, controller.ErrNotFound)

		w := do(newRouter(ctrl), http.MethodGet, "/transactions/"+txHash)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed hash", func(t *testing.T) {
		ctrl := new(MockController)

		w := do(newRouter(ctrl), http.MethodGet, "/transactions/not-a-hash")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		ctrl.AssertNotCalled(t, "Transaction", mock.Anything)
	})
}

func TestRefresh_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no account", history.ErrNoAccount, http.StatusConflict},
		{"koios failure", errors.Wrap(&koios.StatusError{StatusCode: 500}, "load transactions"), http.StatusBadGateway},
		{"breaker open", errors.Wrap(gobreaker.ErrOpenState, "load transactions"), http.StatusServiceUnavailable},
		{"half open saturated", gobreaker.ErrTooManyRequests, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := new(MockController)
			ctrl.On("Refresh", mock.Anything).Return(tt.err)

			w := do(newRouter(ctrl), http.MethodPost, "/transactions/refresh")
			assert.Equal(t, tt.want, w.Code)
			ctrl.AssertNotCalled(t, "Transactions")
		})
	}
}

func TestLoadMore_ReturnsPage(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("LoadMore", mock.Anything).Return(nil)
	ctrl.On("Transactions").Return(&model.TxPage{Offset: 10, PageSize: 10, HasMore: true}, nil)

	w := do(newRouter(ctrl), http.MethodPost, "/transactions/load-more")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data model.TxPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 10, body.Data.Offset)
	assert.True(t, body.Data.HasMore)
	ctrl.AssertExpectations(t)
}
