package sheets

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cashly/internal/core"
)

// Header is the first row of a ledger sheet.
var Header = []any{"Timestamp", "Event", "ID", "User ID", "Name", "Color", "Amount", "Date", "Category"}

// LedgerEntry is one mirrored change. Record fields are empty for deletions.
type LedgerEntry struct {
	At       time.Time
	Entity   core.Entity
	Action   core.Action
	ID       uuid.UUID
	UserID   uuid.UUID
	Name     string
	Color    string
	Amount   string
	Date     string
	Category string
}

// Event is the "entity.action" label of the entry.
func (e LedgerEntry) Event() string {
	return string(e.Entity) + "." + string(e.Action)
}

// Row returns the cell values in Header order.
func (e LedgerEntry) Row() []any {
	return []any{
		e.At.UTC().Format(time.RFC3339),
		e.Event(),
		e.ID.String(),
		e.UserID.String(),
		e.Name,
		e.Color,
		e.Amount,
		e.Date,
		e.Category,
	}
}

// Ports for outbound adapters.
type LedgerWriter interface {
	AppendEntry(ctx context.Context, e LedgerEntry) (rowRef string, err error)
}
