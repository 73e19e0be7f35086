package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/attachment"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/iyhunko/gas-app/internal/sqs"
)

// ErrNotFound is returned when a producer or product does not exist, or a
// product does not belong to the requested producer.
var ErrNotFound = errors.New("not found")

// PasswordHasher derives the stored credentials from a plain password.
type PasswordHasher interface {
	Hash(password string) (hash, salt string, err error)
}

// PhotoAttacher stores and removes product photo files.
type PhotoAttacher interface {
	Attach(ctx context.Context, productID uuid.UUID, photo *attachment.Prepared) error
	Detach(ctx context.Context, productID uuid.UUID, photo model.Photo) error
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

const (
	actionCreated = "created"
	actionUpdated = "updated"
	actionDeleted = "deleted"

	resourceProducer = "producer"
	resourceProduct  = "product"
)

func producerMessage(action string, p *model.Producer) sqs.Message {
	return sqs.Message{
		Action:     action,
		Resource:   resourceProducer,
		ResourceID: p.ID.String(),
		ProducerID: p.ID.String(),
		Name:       p.Name,
		OccurredAt: time.Now().UTC(),
	}
}

func productMessage(action string, p *model.Product) sqs.Message {
	msg := sqs.Message{
		Action:     action,
		Resource:   resourceProduct,
		ResourceID: p.ID.String(),
		ProducerID: p.ProducerID.String(),
		Name:       p.Name,
		Unit:       p.Unit,
		OccurredAt: time.Now().UTC(),
	}
	if p.Price.Valid {
		msg.Price = p.Price.Decimal.StringFixed(2)
	}
	return msg
}

// enqueue writes msg to the outbox through events, inside the caller's transaction.
func enqueue(ctx context.Context, events repository.EventRepository, msg sqs.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	event := &model.Event{EventType: msg.EventType(), EventData: data}
	if _, err := events.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}
