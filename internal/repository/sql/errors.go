package sql

import (
	"errors"

	"github.com/iyhunko/gas-app/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pqUniqueViolationErrCode = "23505" // PostgreSQL unique violation error code. See https://www.postgresql.org/docs/14/errcodes-appendix.html
)

// uniqueViolation converts a unique violation reported by either driver into
// a *repository.UniqueConstraintError. Any other error is returned unchanged.
func uniqueViolation(err error) error {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == pqUniqueViolationErrCode {
		return &repository.UniqueConstraintError{Constraint: pgError.ConstraintName, Detail: pgError.Detail}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolationErrCode {
		return &repository.UniqueConstraintError{Constraint: pqErr.Constraint, Detail: pqErr.Detail}
	}
	return err
}
