package audit

import (
	"context"

	"custodyPool/internal/model"
)

// Sink receives audit events for operations that have committed.
type Sink interface {
	PutEvents(ctx context.Context, events []model.Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) PutEvents(context.Context, []model.Event) error { return nil }
