package repository

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPaginationToken is returned when a pagination token cannot be decoded.
	ErrInvalidPaginationToken = errors.New("token is invalid")
)

const (
	// DefaultPaginationLimit is the default number of items per page.
	DefaultPaginationLimit = 10
	maxPaginationLimit     = 100
)

// Paginator represents pagination state using cursor-based pagination.
type Paginator struct {
	LastID        uuid.UUID
	LastCreatedAt time.Time
}

// NextPageToken returns the token for the page after the row (createdAt, id).
func NextPageToken(createdAt time.Time, id uuid.UUID) string {
	return Paginator{LastID: id, LastCreatedAt: createdAt}.Encode()
}

// Encode encodes the paginator state into a URL-safe base64 token.
func (t Paginator) Encode() string {
	key := fmt.Sprintf("%s,%s", t.LastCreatedAt.Format(time.RFC3339Nano), t.LastID)
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodePageToken decodes a token produced by Encode into a Paginator.
func DecodePageToken(encodedToken string) (*Paginator, error) {
	bytes, err := base64.RawURLEncoding.DecodeString(encodedToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 token: %w", err)
	}
	createdAtPart, idPart, ok := strings.Cut(string(bytes), ",")
	if !ok {
		return nil, fmt.Errorf("invalid token format: %w", ErrInvalidPaginationToken)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtPart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token timestamp: %w", err)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ID: %w", err)
	}

	return &Paginator{
		LastID:        id,
		LastCreatedAt: createdAt,
	}, nil
}
