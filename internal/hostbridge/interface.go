package hostbridge

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/dwarvesf/xray-txhistory/internal/model"
)

type IBridge interface {
	// State returns a copy of what the host last told us
	State() model.HostState

	// Apply validates one host message and updates the state. Unknown
	// types are ignored.
	Apply(ctx context.Context, msg Message) error

	// Subscribe registers fn to run after every state change. Changes are
	// delivered one at a time in apply order, fn must not call Apply.
	Subscribe(fn Subscriber)

	// Serve runs a host session over conn until it closes or ctx ends
	Serve(ctx context.Context, conn *websocket.Conn) error
}
