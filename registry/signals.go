package registry

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Signals for mask instance lifecycle events.
var (
	SignalInstanceCreated = capitan.NewSignal("mask.instance.created", "Mask binding registered")
	SignalInstanceRemoved = capitan.NewSignal("mask.instance.removed", "Mask binding removed")
	SignalTeardownFailed  = capitan.NewSignal("mask.teardown.failed", "Mask binding teardown failed")
)

// Keys for typed event data.
var (
	KeyInstanceID = capitan.NewStringKey("instance_id")
	KeyActive     = capitan.NewIntKey("active")
	KeyError      = capitan.NewErrorKey("error")
)

func emitCreated(ctx context.Context, id string, active int) {
	capitan.Emit(ctx, SignalInstanceCreated,
		KeyInstanceID.Field(id),
		KeyActive.Field(active),
	)
}

func emitRemoved(ctx context.Context, id string, active int) {
	capitan.Emit(ctx, SignalInstanceRemoved,
		KeyInstanceID.Field(id),
		KeyActive.Field(active),
	)
}

func emitTeardownFailed(ctx context.Context, id string, err error) {
	capitan.Error(ctx, SignalTeardownFailed,
		KeyInstanceID.Field(id),
		KeyError.Field(err),
	)
}
