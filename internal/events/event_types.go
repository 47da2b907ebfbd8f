package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/donor-registry/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDonorRegistered EventType = "donor_registered"
	EventLegacyImported  EventType = "legacy_imported"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, subject string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// DonorRegisteredPayload payload.
type DonorRegisteredPayload struct {
	BloodGroup domain.BloodGroup `json:"blood_group"`
	Location   string            `json:"location"`
}

// LegacyImportedPayload payload.
type LegacyImportedPayload struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
}
