// Package hostbridge holds the state pushed by the X-Ray host shell and the
// session protocol used to receive it.
package hostbridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/monitoring"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

var ErrInvalidPayload = errors.New("invalid host message payload")

// Change describes one applied host message
type Change struct {
	Type     string
	Previous model.HostState
	Current  model.HostState
}

// AccountChanged reports whether the connected payment address changed
func (c Change) AccountChanged() bool {
	return c.Previous.PaymentAddress() != c.Current.PaymentAddress()
}

func (c Change) NetworkChanged() bool {
	return c.Previous.Network != c.Current.Network
}

type Subscriber func(change Change)

type Bridge struct {
	// dispatchMu orders state updates together with their notifications, so
	// subscribers see changes in the order they were applied.
	dispatchMu  sync.Mutex
	mu          sync.RWMutex
	state       model.HostState
	subscribers []Subscriber

	validate *validator.Validate
	logger   *logger.Logger
	metrics  *monitoring.BusinessMetricsRecorder
}

func New(appConfig *config.AppConfig, logger *logger.Logger, metrics *monitoring.BusinessMetricsRecorder) *Bridge {
	network := model.Network(appConfig.Host.DefaultNetwork)
	if !network.Valid() {
		network = model.NetworkMainnet
	}
	explorer := model.Explorer(appConfig.Host.DefaultExplorer)
	if !explorer.Valid() {
		explorer = model.ExplorerCardanoscan
	}

	return &Bridge{
		state: model.HostState{
			Network:  network,
			Explorer: explorer,
		},
		validate: newValidator(),
		logger:   logger,
		metrics:  metrics,
	}
}

func (b *Bridge) State() model.HostState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyState(b.state)
}

func (b *Bridge) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

func (b *Bridge) Apply(_ context.Context, msg Message) error {
	update, err := b.decode(msg)
	if err != nil {
		b.metrics.RecordHostMessage(msg.Type, "invalid")
		b.logger.Error("[Apply][decode]", map[string]string{
			"error": err.Error(),
			"type":  msg.Type,
		})
		return err
	}
	if update == nil {
		b.metrics.RecordHostMessage("unknown", "ignored")
		b.logger.Debug("[Apply] ignoring host message", map[string]string{
			"type": msg.Type,
		})
		return nil
	}

	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.mu.Lock()
	previous := copyState(b.state)
	update(&b.state)
	current := copyState(b.state)
	subscribers := append([]Subscriber(nil), b.subscribers...)
	b.mu.Unlock()

	b.metrics.RecordHostMessage(msg.Type, "ok")

	change := Change{Type: msg.Type, Previous: previous, Current: current}
	for _, fn := range subscribers {
		fn(change)
	}
	return nil
}

// decode validates msg and returns the state mutation it carries, or nil
// for message types the bridge does not consume.
func (b *Bridge) decode(msg Message) (func(*model.HostState), error) {
	switch msg.Type {
	case TypeTip:
		var p tipPayload
		if err := b.unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		blockNo := *p.Tip.BlockNo
		return func(s *model.HostState) { s.Tip = &blockNo }, nil

	case TypeAccountState:
		var p accountStatePayload
		if err := b.unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		return func(s *model.HostState) { s.AccountState = p.AccountState }, nil

	case TypeNetwork:
		var p networkPayload
		if err := b.unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		return func(s *model.HostState) { s.Network = p.Network }, nil

	case TypeTheme:
		var p themePayload
		if err := b.unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		return func(s *model.HostState) { s.Theme = p.Theme }, nil

	case TypeCurrency:
		var p currencyPayload
		if err := b.unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		return func(s *model.HostState) { s.Currency = p.Currency }, nil

	case TypeHideBalances:
		var p hideBalancesPayload
		if err := b.unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		return func(s *model.HostState) { s.HideBalances = *p.HideBalances }, nil

	case TypeExplorer:
		var p explorerPayload
		if err := b.unmarshal(msg.Payload, &p); err != nil {
			return nil, err
		}
		return func(s *model.HostState) { s.Explorer = p.Explorer }, nil
	}

	return nil, nil
}

func (b *Bridge) unmarshal(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return errors.Wrap(ErrInvalidPayload, "missing payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if err := b.validate.Struct(out); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	return nil
}

// Serve sends the connect requests, then applies every message the host
// sends until the connection closes. Invalid messages are answered with an
// error message and do not end the session.
func (b *Bridge) Serve(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for _, t := range ConnectRequests {
		if err := conn.WriteJSON(Message{Type: t}); err != nil {
			return errors.Wrap(err, "send connect request")
		}
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			if isDecodeError(err) {
				if werr := conn.WriteJSON(errorMessage(errors.Wrap(ErrInvalidPayload, err.Error()))); werr != nil {
					return errors.Wrap(werr, "write error message")
				}
				continue
			}
			return errors.Wrap(err, "read host message")
		}

		if err := b.Apply(ctx, msg); err != nil {
			if werr := conn.WriteJSON(errorMessage(err)); werr != nil {
				return errors.Wrap(werr, "write error message")
			}
		}
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func copyState(s model.HostState) model.HostState {
	out := s
	if s.Tip != nil {
		tip := *s.Tip
		out.Tip = &tip
	}
	if s.AccountState != nil {
		account := *s.AccountState
		out.AccountState = &account
	}
	return out
}
