package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
)

const (
	eventColumns = "id, event_type, event_data, status, priority, attempts, last_error, " +
		"run_at, locked_at, locked_by, created_at, processed_at"

	// maxLockDuration is how long a claim holds before another worker may take the event over.
	maxLockDuration = 15 * time.Minute
)

// EventRepository implements the EventRepository interface for Event entities.
type EventRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &EventRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *EventRepository) getExecutor() dbExecutor {
	return executorFor(r.db, r.txn)
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e        model.Event
		data     []byte
		lockedBy sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.EventType, &data, &e.Status, &e.Priority, &e.Attempts, &e.LastError,
		&e.RunAt, &e.LockedAt, &lockedBy, &e.CreatedAt, &e.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	e.EventData = json.RawMessage(data)
	e.LockedBy = lockedBy.String
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new event into the database.
func (r *EventRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	event, ok := resource.(*model.Event)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.Event: %w", repository.ErrInvalidType)
	}

	event.InitMeta()

	query := `INSERT INTO events (` + eventColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		event.ID, event.EventType, []byte(event.EventData), event.Status, event.Priority, event.Attempts,
		event.LastError, event.RunAt, event.LockedAt, nullString(event.LockedBy), event.CreatedAt, event.ProcessedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	return event, nil
}

// Update persists the delivery state of an event: status, attempts, schedule and lock.
func (r *EventRepository) Update(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	event, ok := resource.(*model.Event)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.Event: %w", repository.ErrInvalidType)
	}

	query := `UPDATE events
	          SET status = $1, attempts = $2, last_error = $3, run_at = $4,
	              locked_at = $5, locked_by = $6, processed_at = $7
	          WHERE id = $8`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		event.Status, event.Attempts, event.LastError, event.RunAt,
		event.LockedAt, nullString(event.LockedBy), event.ProcessedAt, event.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return event, nil
}

// FindByID retrieves a single event by ID.
func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	event, err := scanEvent(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	return event, nil
}

// List retrieves the oldest events in a status, pending when the query names none.
func (r *EventRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	sqlQuery := `SELECT ` + eventColumns + `
	             FROM events
	             WHERE status = $1
	             ORDER BY created_at ASC
	             LIMIT $2`

	status := model.EventStatusPending
	if s, ok := query.Values[repository.StatusField]; ok && s != "" {
		status = model.EventStatus(s)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}

	stmt, err := r.getExecutor().PrepareContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	resources := make([]repository.Resource, 0, len(events))
	for _, e := range events {
		resources = append(resources, e)
	}
	return resources, nil
}

// ClaimPending locks up to limit due pending events for worker. Rows locked by
// another transaction are skipped; claims older than maxLockDuration are taken over.
func (r *EventRepository) ClaimPending(ctx context.Context, limit int, worker string) ([]*model.Event, error) {
	query := `UPDATE events SET locked_at = $1, locked_by = $2
	          WHERE id IN (
	              SELECT id FROM events
	              WHERE status = $3 AND run_at <= $1 AND (locked_at IS NULL OR locked_at < $4)
	              ORDER BY priority ASC, run_at ASC
	              LIMIT $5
	              FOR UPDATE SKIP LOCKED
	          )
	          RETURNING ` + eventColumns

	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}
	now := time.Now()

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare claim statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, now, worker, model.EventStatusPending, now.Add(-maxLockDuration), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// DeleteByID deletes an event by ID.
func (r *EventRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	event, ok := resource.(*model.Event)
	if !ok {
		return fmt.Errorf("resource must be a *model.Event: %w", repository.ErrInvalidType)
	}

	stmt, err := r.getExecutor().PrepareContext(ctx, `DELETE FROM events WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return checkAffected(result)
}
