package sqs

import "time"

// Message is a domain event notification: something happened to a producer or a product.
type Message struct {
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id"`
	ProducerID string    `json:"producer_id"`
	Name       string    `json:"name"`
	Price      string    `json:"price,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventType is the routing name of the message, e.g. "product.created".
func (m Message) EventType() string {
	return m.Resource + "." + m.Action
}
