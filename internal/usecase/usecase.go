// Package usecase holds one type per application operation. Each use case
// takes a structured input, runs inside one storage transaction, enforces
// the ownership and uniqueness rules, and returns a structured output or a
// core domain error.
package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"cashly/internal/core"
)

// EventPublisher receives change events after a successful commit.
type EventPublisher interface {
	PublishChange(ctx context.Context, ev core.ChangeEvent) error
}

// publish never fails the caller: the mutation is already committed.
func publish(ctx context.Context, p EventPublisher, entity core.Entity, action core.Action, id, userID uuid.UUID) {
	if p == nil {
		return
	}
	ev := core.NewChangeEvent(entity, action, id, userID)
	if err := p.PublishChange(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", ev.Entity,
			"action", ev.Action,
			"id", ev.ID,
			"error", err)
	}
}
