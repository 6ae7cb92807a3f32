package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// Additional event types for attachment and integrity events
const (
	EventTypeAttached EventType = "attached"
	EventTypeDetached EventType = "detached"
	EventTypeChecked  EventType = "checked"
	EventTypeRepaired EventType = "repaired"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeSite       EntityType = "site"
	EntityTypeCategory   EntityType = "category"
	EntityTypeIncome     EntityType = "income"
	EntityTypeExpense    EntityType = "expense"
	EntityTypeDiary      EntityType = "diary"
	EntityTypeAttachment EntityType = "attachment"
	EntityTypeIntegrity  EntityType = "integrity"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "expense.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "expense"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntityCreated creates an <entity>.created event
func EntityCreated(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeCreated, entity, payload)
}

// EntityUpdated creates an <entity>.updated event
func EntityUpdated(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeUpdated, entity, payload)
}

// EntityDeleted creates an <entity>.deleted event
func EntityDeleted(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeDeleted, entity, payload)
}

// AttachmentAttached creates an attachment.attached event
func AttachmentAttached(payload interface{}) Event {
	return NewEvent(EventTypeAttached, EntityTypeAttachment, payload)
}

// AttachmentDetached creates an attachment.detached event
func AttachmentDetached(payload interface{}) Event {
	return NewEvent(EventTypeDetached, EntityTypeAttachment, payload)
}

// IntegrityChecked creates an integrity.checked event
func IntegrityChecked(payload interface{}) Event {
	return NewEvent(EventTypeChecked, EntityTypeIntegrity, payload)
}

// IntegrityRepaired creates an integrity.repaired event
func IntegrityRepaired(payload interface{}) Event {
	return NewEvent(EventTypeRepaired, EntityTypeIntegrity, payload)
}
