package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
)

const producerColumns = "id, name, address, email, phone, crypted_password, salt, latitude, longitude, created_at, updated_at"

// ProducerRepository implements the ProducerRepository interface for Producer entities.
type ProducerRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewProducerRepository creates a new ProducerRepository instance.
func NewProducerRepository(db *sql.DB) repository.ProducerRepository {
	return &ProducerRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *ProducerRepository) getExecutor() dbExecutor {
	return executorFor(r.db, r.txn)
}

func scanProducer(row rowScanner) (*model.Producer, error) {
	var p model.Producer
	err := row.Scan(
		&p.ID, &p.Name, &p.Address, &p.Email, &p.Phone, &p.CryptedPassword, &p.Salt,
		&p.Latitude, &p.Longitude, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new producer into the database.
func (r *ProducerRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	producer, ok := resource.(*model.Producer)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.Producer: %w", repository.ErrInvalidType)
	}

	if producer.ID == uuid.Nil {
		producer.InitMeta()
	}

	query := `INSERT INTO producers (` + producerColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		producer.ID, producer.Name, producer.Address, producer.Email, producer.Phone,
		producer.CryptedPassword, producer.Salt, producer.Latitude, producer.Longitude,
		producer.CreatedAt, producer.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert producer: %w", uniqueViolation(err))
	}

	return producer, nil
}

// Update overwrites the stored attributes of a producer and bumps updated_at.
func (r *ProducerRepository) Update(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	producer, ok := resource.(*model.Producer)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.Producer: %w", repository.ErrInvalidType)
	}

	producer.UpdatedAt = time.Now()

	query := `UPDATE producers
	          SET name = $1, address = $2, email = $3, phone = $4, crypted_password = $5, salt = $6,
	              latitude = $7, longitude = $8, updated_at = $9
	          WHERE id = $10`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		producer.Name, producer.Address, producer.Email, producer.Phone,
		producer.CryptedPassword, producer.Salt, producer.Latitude, producer.Longitude,
		producer.UpdatedAt, producer.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update producer: %w", uniqueViolation(err))
	}
	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return producer, nil
}

// List retrieves producers newest first. A NameField value filters by case-insensitive substring.
func (r *ProducerRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + producerColumns + " FROM producers WHERE 1=1")

	var args []interface{}
	argIndex := 1

	if name, ok := query.Values[repository.NameField]; ok && name != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND name ILIKE $%d", argIndex))
		args = append(args, "%"+name+"%")
		argIndex++
	}

	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
	args = append(args, limit)

	stmt, err := r.getExecutor().PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query producers: %w", err)
	}
	defer rows.Close()

	var producers []repository.Resource
	for rows.Next() {
		producer, err := scanProducer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan producer: %w", err)
		}
		producers = append(producers, producer)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return producers, nil
}

// FindByID retrieves a single producer by ID.
func (r *ProducerRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail retrieves the producer registered with email.
func (r *ProducerRepository) FindByEmail(ctx context.Context, email string) (*model.Producer, error) {
	return r.findOne(ctx, "email", email)
}

func (r *ProducerRepository) findOne(ctx context.Context, column string, value interface{}) (*model.Producer, error) {
	query := `SELECT ` + producerColumns + ` FROM producers WHERE ` + column + ` = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	producer, err := scanProducer(stmt.QueryRowContext(ctx, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("producer not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query producer: %w", err)
	}

	return producer, nil
}

// ListMarkers returns a map pin for every producer that has coordinates.
func (r *ProducerRepository) ListMarkers(ctx context.Context) ([]model.Marker, error) {
	query := `SELECT id, name, latitude, longitude FROM producers
	          WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	          ORDER BY name`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query markers: %w", err)
	}
	defer rows.Close()

	markers := []model.Marker{}
	for rows.Next() {
		var m model.Marker
		if err := rows.Scan(&m.ProducerID, &m.Name, &m.Lat, &m.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan marker: %w", err)
		}
		markers = append(markers, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return markers, nil
}

// DeleteByID deletes a producer by ID. Its products go with it through the foreign key.
func (r *ProducerRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	producer, ok := resource.(*model.Producer)
	if !ok {
		return fmt.Errorf("resource must be a *model.Producer: %w", repository.ErrInvalidType)
	}

	stmt, err := r.getExecutor().PrepareContext(ctx, `DELETE FROM producers WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, producer.ID)
	if err != nil {
		return fmt.Errorf("failed to delete producer: %w", err)
	}

	return checkAffected(result)
}
