package amqp

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"cashly/internal/core"
)

// ChangeMessage is the wire form of a core.ChangeEvent. It carries ids only;
// consumers load the current record from the store.
type ChangeMessage struct {
	core.ChangeEvent
}

func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	return &ChangeMessage{ChangeEvent: ev}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Entity {
	case core.EntityExpense, core.EntityExpenseCategory:
	default:
		return nil, fmt.Errorf("unknown entity %q", msg.Entity)
	}
	switch msg.Action {
	case core.ActionCreated, core.ActionUpdated, core.ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if msg.ID == uuid.Nil || msg.UserID == uuid.Nil {
		return nil, fmt.Errorf("message without id or user_id")
	}
	return &msg, nil
}
