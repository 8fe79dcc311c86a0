// Package worker mirrors committed changes into the ledger sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"cashly/internal/amqp"
	"cashly/internal/core"
	"cashly/internal/sheets"
)

// SyncWorker turns change events into ledger rows. Created and updated
// records are read back from the store so the row shows committed values.
type SyncWorker struct {
	store  core.Store
	ledger sheets.LedgerWriter
}

func NewSyncWorker(store core.Store, ledger sheets.LedgerWriter) *SyncWorker {
	return &SyncWorker{store: store, ledger: ledger}
}

// HandleChange processes one change message from AMQP. A returned error
// makes the consumer requeue the message.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	entry := sheets.LedgerEntry{
		At:     msg.Timestamp,
		Entity: msg.Entity,
		Action: msg.Action,
		ID:     msg.ID,
		UserID: msg.UserID,
	}

	if msg.Action != core.ActionDeleted {
		found, err := w.fill(ctx, &entry)
		if err != nil {
			return fmt.Errorf("load %s %s: %w", msg.Entity, msg.ID, err)
		}
		if !found {
			// Removed before the event was consumed; the delete event follows.
			slog.WarnContext(ctx, "Record no longer exists, writing bare entry",
				"event", msg.RoutingKey(), "id", msg.ID)
		}
	}

	ref, err := w.ledger.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored change to ledger",
		"event", msg.RoutingKey(),
		"id", msg.ID,
		"ledger_ref", ref)
	return nil
}

func (w *SyncWorker) fill(ctx context.Context, entry *sheets.LedgerEntry) (bool, error) {
	found := false
	err := w.store.WithinTx(ctx, func(r core.Repositories) error {
		switch entry.Entity {
		case core.EntityExpense:
			e, err := r.Expenses().GetByIDAndUserID(ctx, entry.ID, entry.UserID)
			if err != nil || e == nil {
				return err
			}
			found = true
			entry.Amount = e.Amount.StringFixed(2)
			entry.Date = e.RealisedDate.String()
			if e.Category != nil {
				entry.Category = e.Category.Name
			}
		case core.EntityExpenseCategory:
			c, err := r.Categories().GetByIDAndUserID(ctx, entry.ID, entry.UserID)
			if err != nil || c == nil {
				return err
			}
			found = true
			entry.Name = c.Name
			entry.Color = c.Color
		default:
			return fmt.Errorf("unknown entity %q", entry.Entity)
		}
		return nil
	})
	return found, err
}
