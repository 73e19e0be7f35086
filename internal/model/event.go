package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the status of an event in the outbox pattern.
type EventStatus string

const (
	// EventStatusPending indicates the event has been created but not yet processed
	EventStatusPending EventStatus = "pending"
	// EventStatusProcessed indicates the event has been successfully processed
	EventStatusProcessed EventStatus = "processed"
	// EventStatusFailed indicates the event exhausted its attempts
	EventStatusFailed EventStatus = "failed"
)

// MaxEventAttempts is the number of delivery attempts before an event is marked failed.
const MaxEventAttempts = 25

// Event types emitted by the services.
const (
	EventProducerCreated = "producer.created"
	EventProducerUpdated = "producer.updated"
	EventProducerDeleted = "producer.deleted"
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
)

// Event is a queued job row: a domain event waiting to be relayed to the message queue.
type Event struct {
	ID          uuid.UUID
	EventType   string
	EventData   json.RawMessage
	Status      EventStatus
	Priority    int
	Attempts    int
	LastError   string
	RunAt       time.Time
	LockedAt    *time.Time
	LockedBy    string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// InitMeta initializes the event metadata including ID and timestamps.
func (e *Event) InitMeta() {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	if e.RunAt.IsZero() {
		e.RunAt = e.CreatedAt
	}
	if e.Status == "" {
		e.Status = EventStatusPending
	}
}

// NextRunAt returns when a job that has failed attempts times should be retried.
func NextRunAt(now time.Time, attempts int) time.Time {
	backoff := time.Duration(attempts*attempts*attempts*attempts)*time.Second + 5*time.Second
	return now.Add(backoff)
}
