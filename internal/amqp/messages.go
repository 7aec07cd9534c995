package amqp

import (
	"encoding/json"
	"time"
)

// Cascade entities as carried in audit events.
const (
	EntityCategory = "category"
	EntityUser     = "user"
)

// CascadeEvent is the audit record published after a cascade delete
// completes. Consumers get the counts, not the payloads; the records are
// already gone.
type CascadeEvent struct {
	Entity            string    `json:"entity"`
	EntityID          int64     `json:"entity_id"`
	CategoriesRemoved int64     `json:"categories_removed"`
	ExpensesRemoved   int64     `json:"expenses_removed"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewCascadeEvent stamps an event with the current time.
func NewCascadeEvent(entity string, entityID, categoriesRemoved, expensesRemoved int64) *CascadeEvent {
	return &CascadeEvent{
		Entity:            entity,
		EntityID:          entityID,
		CategoriesRemoved: categoriesRemoved,
		ExpensesRemoved:   expensesRemoved,
		Timestamp:         time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *CascadeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CascadeEventFromJSON creates an event from JSON bytes.
func CascadeEventFromJSON(data []byte) (*CascadeEvent, error) {
	var ev CascadeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
