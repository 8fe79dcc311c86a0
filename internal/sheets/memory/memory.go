package memory

import (
	"context"
	"fmt"
	"sync"

	ports "cashly/internal/sheets"
)

// Ledger keeps mirrored entries in process, for local runs without a
// spreadsheet.
type Ledger struct {
	mu      sync.Mutex
	entries []ports.LedgerEntry
}

var _ ports.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// AppendEntry stores the entry and returns a synthetic row reference.
func (l *Ledger) AppendEntry(ctx context.Context, e ports.LedgerEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return fmt.Sprintf("mem:%d", len(l.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (l *Ledger) Entries() []ports.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ports.LedgerEntry(nil), l.entries...)
}
