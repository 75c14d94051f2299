package host

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/hostbridge"
	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
	"github.com/dwarvesf/xray-txhistory/internal/view"
)

type handler struct {
	bridge   hostbridge.IBridge
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func New(bridge hostbridge.IBridge, appConfig *config.AppConfig, logger *logger.Logger) IHandler {
	origins := allowedOrigins(appConfig.ApiServer.AllowedOrigins)
	return &handler{
		bridge: bridge,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r, origins)
			},
		},
		logger: logger,
	}
}

// GetState godoc
// @Summary Host state
// @Description Tip, account, network and display preferences last pushed by the host shell
// @id getHostState
// @Tags Host
// @Produce json
// @Success 200 {object} view.Response[model.HostState]
// @Router /host/state [get]
func (h *handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, view.CreateResponse[model.HostState](h.bridge.State(), nil, nil, ""))
}

// PostMessage godoc
// @Summary Deliver a host message
// @Description Applies one xray.host.* message. Unknown types are accepted and ignored.
// @id postHostMessage
// @Tags Host
// @Accept json
// @Produce json
// @Param message body hostbridge.Message true "host message"
// @Success 200 {object} view.Response[model.HostState]
// @Failure 400 {object} view.ErrorResponse
// @Router /host/messages [post]
func (h *handler) PostMessage(c *gin.Context) {
	var msg hostbridge.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, nil, "invalid host message"))
		return
	}
	if msg.Type == "" {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, errors.New("type is required"), nil, "invalid host message"))
		return
	}

	if err := h.bridge.Apply(c.Request.Context(), msg); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, hostbridge.ErrInvalidPayload) {
			status = http.StatusBadRequest
		}
		c.JSON(status, view.CreateResponse[any](nil, err, nil, "can't apply host message"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[model.HostState](h.bridge.State(), nil, nil, ""))
}

// Connect godoc
// @Summary Host session
// @Description WebSocket carrying {type, payload} envelopes. The service sends the xray.client.get* requests on connect.
// @id connectHost
// @Tags Host
// @Success 101
// @Router /host/ws [get]
func (h *handler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already answered the request
		h.logger.Error("[Connect][upgrader.Upgrade]", map[string]string{
			"error": err.Error(),
		})
		return
	}
	defer conn.Close()

	h.logger.Info("host session connected", map[string]string{
		"remote": c.Request.RemoteAddr,
	})
	if err := h.bridge.Serve(c.Request.Context(), conn); err != nil {
		h.logger.Error("[Connect][bridge.Serve]", map[string]string{
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("host session closed", map[string]string{
		"remote": c.Request.RemoteAddr,
	})
}

func allowedOrigins(raw string) map[string]struct{} {
	origins := map[string]struct{}{}
	for _, o := range strings.Split(raw, ";") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = struct{}{}
		}
	}
	return origins
}

// originAllowed accepts requests without an Origin header, same origin
// requests and origins listed in ALLOWED_ORIGINS. "*" allows any origin.
func originAllowed(r *http.Request, origins map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := origins["*"]; ok {
		return true
	}
	if _, ok := origins[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
