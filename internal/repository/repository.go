package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/model"
)

var (
	// ErrNotFound is returned when the referenced resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidType is returned when a repository receives a resource of a type it does not manage.
	ErrInvalidType = errors.New("invalid resource type")
)

// Repository defines the interface for a generic repository that can manage resources.
type Repository interface {
	Create(ctx context.Context, resource Resource) (result Resource, err error)
	Update(ctx context.Context, resource Resource) (result Resource, err error)
	List(ctx context.Context, query Query) (result []Resource, err error)
	DeleteByID(ctx context.Context, resource Resource) error
	FindByID(ctx context.Context, id uuid.UUID) (result Resource, err error) // find one
}

// ProducerRepository manages producers.
type ProducerRepository interface {
	Repository
	FindByEmail(ctx context.Context, email string) (*model.Producer, error)
	ListMarkers(ctx context.Context) ([]model.Marker, error)
}

// ProductRepository manages products. List honours ProducerIDField.
type ProductRepository interface {
	Repository
	DeleteByProducerID(ctx context.Context, producerID uuid.UUID) ([]*model.Product, error)
}

// EventRepository manages the outbox job queue.
type EventRepository interface {
	Repository
	// ClaimPending locks up to limit due events for worker and returns them.
	ClaimPending(ctx context.Context, limit int, worker string) ([]*model.Event, error)
}

// Repositories groups repositories bound to the same transaction.
type Repositories struct {
	Producers ProducerRepository
	Products  ProductRepository
	Events    EventRepository
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// Resource represents a generic resource that can be managed by the repository.
type Resource interface {
	InitMeta()
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Constraint string
	Detail     string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
