package telemetry

import "context"

type ITelemetry interface {
	// PollTip fetches the chain tip of the host's network and applies it as
	// a tip message
	PollTip(ctx context.Context) error
}
