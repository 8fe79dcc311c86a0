package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashly/internal/core"
	ports "cashly/internal/sheets"
)

func TestLedgerAppend(t *testing.T) {
	l := New()
	entry := ports.LedgerEntry{
		At:     time.Now(),
		Entity: core.EntityExpense,
		Action: core.ActionCreated,
		ID:     uuid.New(),
		UserID: uuid.New(),
		Amount: "12.50",
	}

	ref, err := l.AppendEntry(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = l.AppendEntry(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "mem:2", ref)

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "expense.created", entries[0].Event())
}

func TestLedgerAppendCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().AppendEntry(ctx, ports.LedgerEntry{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, New().Entries())
}
