package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iyhunko/gas-app/internal/repository"
)

// TransactionalRepository hands out repositories that share one database transaction.
type TransactionalRepository struct {
	db *sql.DB
}

// NewTransactionalRepository creates a new TransactionalRepository
func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

// Repositories returns repositories bound to the connection pool, outside any transaction.
func (tr *TransactionalRepository) Repositories() repository.Repositories {
	return tr.bind(nil)
}

func (tr *TransactionalRepository) bind(tx *sql.Tx) repository.Repositories {
	return repository.Repositories{
		Producers: &ProducerRepository{db: tr.db, txn: tx},
		Products:  &ProductRepository{db: tr.db, txn: tx},
		Events:    &EventRepository{db: tr.db, txn: tx},
	}
}

// WithinTransaction executes fn with repositories bound to a new transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (tr *TransactionalRepository) WithinTransaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tr.bind(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	// Commit the transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
