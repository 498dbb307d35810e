package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names the mutation a ChangeMessage reports.
type Kind string

const (
	KindExpenseAdded   Kind = "expense.added"
	KindExpenseDeleted Kind = "expense.deleted"
	KindPlaceAdded     Kind = "place.added"
	KindPlaceRemoved   Kind = "place.removed"
	KindTripCreated    Kind = "trip.created"
	KindTripDeleted    Kind = "trip.deleted"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindExpenseAdded, KindExpenseDeleted, KindPlaceAdded, KindPlaceRemoved, KindTripCreated, KindTripDeleted:
		return true
	}
	return false
}

// ChangeMessage is a lightweight notice that an entity changed on the backend.
// Consumers fetch the entity themselves; only ids travel on the wire.
type ChangeMessage struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	EntityID  string    `json:"entity_id"`
	UserID    string    `json:"user_id,omitempty"`
	TripID    string    `json:"trip_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage stamps a message with a fresh id and the current time.
func NewChangeMessage(kind Kind, entityID, userID, tripID string) *ChangeMessage {
	return &ChangeMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		EntityID:  entityID,
		UserID:    userID,
		TripID:    tripID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects unknown kinds.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unknown message kind %q", msg.Kind)
	}
	return &msg, nil
}
