package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iyhunko/gas-app/internal/metrics"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
)

const outboxBatchSize = 100

// EventPublisher relays a serialized event to the message queue.
type EventPublisher interface {
	PublishRaw(ctx context.Context, eventType string, body []byte) error
}

// OutboxWorker polls the events table and relays due events to the queue.
type OutboxWorker struct {
	events    repository.EventRepository
	publisher EventPublisher
	interval  time.Duration
	workerID  string
	stopChan  chan struct{}
	now       func() time.Time
}

// NewOutboxWorker creates a new OutboxWorker. workerID identifies the process in locked_by.
func NewOutboxWorker(events repository.EventRepository, publisher EventPublisher, interval time.Duration, workerID string) *OutboxWorker {
	return &OutboxWorker{
		events:    events,
		publisher: publisher,
		interval:  interval,
		workerID:  workerID,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start begins processing events from the outbox
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", slog.Duration("interval", w.interval), slog.String("worker", w.workerID))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker stopped by context")
			return
		case <-w.stopChan:
			slog.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				slog.Error("Failed to claim pending events", slog.Any("err", err))
			}
		}
	}
}

// Stop stops the outbox worker
func (w *OutboxWorker) Stop() {
	close(w.stopChan)
}

// ProcessPending claims one batch of due events and publishes them. It returns
// the number of events published.
func (w *OutboxWorker) ProcessPending(ctx context.Context) (int, error) {
	events, err := w.events.ClaimPending(ctx, outboxBatchSize, w.workerID)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	slog.Info("Processing pending events", slog.Int("count", len(events)))

	published := 0
	for _, event := range events {
		if w.processEvent(ctx, event) {
			published++
		}
	}
	return published, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *model.Event) bool {
	publishErr := w.publisher.PublishRaw(ctx, event.EventType, event.EventData)
	now := w.now()

	event.LockedAt = nil
	event.LockedBy = ""
	outcome := "processed"
	if publishErr == nil {
		event.Status = model.EventStatusProcessed
		event.ProcessedAt = &now
		event.LastError = ""
	} else {
		event.Attempts++
		event.LastError = publishErr.Error()
		if event.Attempts >= model.MaxEventAttempts {
			event.Status = model.EventStatusFailed
			outcome = "failed"
		} else {
			event.Status = model.EventStatusPending
			event.RunAt = model.NextRunAt(now, event.Attempts)
			outcome = "retried"
		}
		slog.Error("Failed to publish event",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
			slog.Int("attempts", event.Attempts),
			slog.Any("err", publishErr))
	}
	metrics.OutboxEvents.WithLabelValues(outcome).Inc()

	if _, err := w.events.Update(ctx, event); err != nil {
		slog.Error("Failed to update event status",
			slog.String("event_id", event.ID.String()),
			slog.String("status", string(event.Status)),
			slog.Any("err", err))
		return false
	}
	if publishErr == nil {
		slog.Info("Event processed successfully",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType))
	}
	return publishErr == nil
}
