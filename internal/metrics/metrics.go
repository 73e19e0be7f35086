package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProducersCreated is a Prometheus counter for tracking the total number of producers created.
	ProducersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producers_created_total",
		Help: "The total number of producers created",
	})

	// ProducersUpdated is a Prometheus counter for tracking the total number of producers updated.
	ProducersUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producers_updated_total",
		Help: "The total number of producers updated",
	})

	// ProducersDeleted is a Prometheus counter for tracking the total number of producers deleted.
	ProducersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producers_deleted_total",
		Help: "The total number of producers deleted",
	})

	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of products updated.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of products updated",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// Sessions counts login attempts by result: started or failed.
	Sessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessions_total",
		Help: "The total number of login attempts by result",
	}, []string{"result"})

	// GeocodeLookups counts address lookups by result: hit, miss or error.
	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_lookups_total",
		Help: "The total number of geocoding lookups by result",
	}, []string{"result"})

	// OutboxEvents counts relayed outbox events by outcome: processed, retried or failed.
	OutboxEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "The total number of outbox events handled by outcome",
	}, []string{"status"})
)
