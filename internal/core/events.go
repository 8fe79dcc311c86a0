package core

import (
	"time"

	"github.com/google/uuid"
)

type (
	Entity string
	Action string
)

const (
	EntityExpense         Entity = "expense"
	EntityExpenseCategory Entity = "expense_category"

	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent describes a committed mutation of one record.
type ChangeEvent struct {
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeEvent(entity Entity, action Action, id, userID uuid.UUID) ChangeEvent {
	return ChangeEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is the broker routing key for the event, e.g. "expense.created".
func (e ChangeEvent) RoutingKey() string {
	return string(e.Entity) + "." + string(e.Action)
}
