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

const productColumns = "id, producer_id, name, description, price, unit, " +
	"photo_file_name, photo_content_type, photo_file_size, photo_updated_at, created_at, updated_at"

// ProductRepository implements the ProductRepository interface for Product entities.
type ProductRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &ProductRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *ProductRepository) getExecutor() dbExecutor {
	return executorFor(r.db, r.txn)
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.ProducerID, &p.Name, &p.Description, &p.Price, &p.Unit,
		&p.Photo.FileName, &p.Photo.ContentType, &p.Photo.FileSize, &p.Photo.UpdatedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	product, ok := resource.(*model.Product)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.Product: %w", repository.ErrInvalidType)
	}

	// Only initialize metadata if not already set
	if product.ID == uuid.Nil {
		product.InitMeta()
	}

	query := `INSERT INTO products (` + productColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		product.ID, product.ProducerID, product.Name, product.Description, product.Price, product.Unit,
		product.Photo.FileName, product.Photo.ContentType, product.Photo.FileSize, product.Photo.UpdatedAt,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return product, nil
}

// Update overwrites the stored attributes of a product and bumps updated_at.
// The owning producer never changes.
func (r *ProductRepository) Update(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	product, ok := resource.(*model.Product)
	if !ok {
		return nil, fmt.Errorf("resource must be a *model.Product: %w", repository.ErrInvalidType)
	}

	product.UpdatedAt = time.Now()

	query := `UPDATE products
	          SET name = $1, description = $2, price = $3, unit = $4,
	              photo_file_name = $5, photo_content_type = $6, photo_file_size = $7, photo_updated_at = $8,
	              updated_at = $9
	          WHERE id = $10 AND producer_id = $11`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		product.Name, product.Description, product.Price, product.Unit,
		product.Photo.FileName, product.Photo.ContentType, product.Photo.FileSize, product.Photo.UpdatedAt,
		product.UpdatedAt, product.ID, product.ProducerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return product, nil
}

// List retrieves products from the database based on the provided query.
// A ProducerIDField value scopes the result to one producer.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + productColumns + " FROM products WHERE 1=1")

	var args []interface{}
	argIndex := 1

	if producerID, ok := query.Values[repository.ProducerIDField]; ok {
		id, err := uuid.Parse(producerID)
		if err != nil {
			return nil, fmt.Errorf("invalid producer id %q: %w", producerID, err)
		}
		queryBuilder.WriteString(fmt.Sprintf(" AND producer_id = $%d", argIndex))
		args = append(args, id)
		argIndex++
	}

	// Apply pagination
	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
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
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	resources := make([]repository.Resource, 0, len(products))
	for _, p := range products {
		resources = append(resources, p)
	}
	return resources, nil
}

func collectProducts(rows *sql.Rows) ([]*model.Product, error) {
	var products []*model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// FindByID retrieves a single product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// DeleteByID deletes a product by ID.
func (r *ProductRepository) DeleteByID(ctx context.Context, resource repository.Resource) error {
	product, ok := resource.(*model.Product)
	if !ok {
		return fmt.Errorf("resource must be a *model.Product: %w", repository.ErrInvalidType)
	}

	stmt, err := r.getExecutor().PrepareContext(ctx, `DELETE FROM products WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return checkAffected(result)
}

// DeleteByProducerID deletes every product of a producer and returns the deleted rows.
func (r *ProductRepository) DeleteByProducerID(ctx context.Context, producerID uuid.UUID) ([]*model.Product, error) {
	query := `DELETE FROM products WHERE producer_id = $1 RETURNING ` + productColumns

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, producerID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}
