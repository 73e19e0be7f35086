// Package authz decides which actions an identity may perform on producers and products.
package authz

import (
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/auth"
)

// Action is an operation on a resource.
type Action string

const (
	Read    Action = "read"
	Create  Action = "create"
	Update  Action = "update"
	Destroy Action = "destroy"
)

// Kind names a resource type.
type Kind string

const (
	ProducerKind Kind = "producer"
	ProductKind  Kind = "product"
)

// Resource is the target of an action. OwnerID is the producer that owns it:
// the producer itself, or the producer a product belongs to. It is uuid.Nil
// when no instance exists yet, e.g. when creating a producer.
type Resource struct {
	Kind    Kind
	OwnerID uuid.UUID
}

// Producer returns the resource for producer id.
func Producer(id uuid.UUID) Resource {
	return Resource{Kind: ProducerKind, OwnerID: id}
}

// Product returns the resource for a product owned by producerID.
func Product(producerID uuid.UUID) Resource {
	return Resource{Kind: ProductKind, OwnerID: producerID}
}

// CanPerform reports whether identity may perform action on resource.
// A nil identity is a guest.
func CanPerform(identity *auth.Identity, action Action, resource Resource) bool {
	if action == Read {
		return resource.Kind == ProducerKind || resource.Kind == ProductKind
	}

	if identity == nil {
		return resource.Kind == ProducerKind && action == Create
	}

	owns := resource.OwnerID != uuid.Nil && resource.OwnerID == identity.ProducerID
	switch resource.Kind {
	case ProducerKind:
		return (action == Update || action == Destroy) && owns
	case ProductKind:
		return (action == Create || action == Update || action == Destroy) && owns
	}
	return false
}
