// Package queue defines the audit events published to RabbitMQ after a
// committed change, the publisher, and the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventBoatCreated     = "boat.created"
	EventBoatDeleted     = "boat.deleted"
	EventBoatAssigned    = "boat.assigned"
	EventBoatUnassigned  = "boat.unassigned"
	EventPositionDeleted = "position.deleted"
	EventMapDeleted      = "map.deleted"
)

// Event describes one committed change. Unused ids are omitted.
type Event struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	ActorID            uint64    `json:"actor_id,omitempty"`
	BoatID             uint64    `json:"boat_id,omitempty"`
	BoatIndex          int       `json:"boat_index,omitempty"`
	PositionID         uint64    `json:"position_id,omitempty"`
	PreviousPositionID uint64    `json:"previous_position_id,omitempty"`
	MapID              uint64    `json:"map_id,omitempty"`
	Outcome            string    `json:"outcome,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id and time on an event of the given type.
func NewEvent(typ string) Event {
	return Event{ID: uuid.NewString(), Type: typ, OccurredAt: time.Now().UTC()}
}
