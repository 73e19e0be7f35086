package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/metrics"
	"github.com/iyhunko/gas-app/internal/model"
	"github.com/iyhunko/gas-app/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when the email/password pair does not match a producer.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for malformed, expired or revoked session tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// ProducerFinder looks producers up by login email.
type ProducerFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.Producer, error)
}

// Claims are the JWT claims of a session token. Subject holds the producer ID and ID the session ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session is an issued login session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  *Identity
}

// Sessions issues, verifies and revokes login sessions.
type Sessions struct {
	secret    []byte
	ttl       time.Duration
	producers ProducerFinder
	hasher    *Hasher
	store     SessionStore
	now       func() time.Time
}

// NewSessions creates a Sessions manager. A nil store falls back to NopSessionStore.
func NewSessions(secret string, ttl time.Duration, producers ProducerFinder, hasher *Hasher, store SessionStore) *Sessions {
	if store == nil {
		store = NopSessionStore{}
	}
	return &Sessions{
		secret:    []byte(secret),
		ttl:       ttl,
		producers: producers,
		hasher:    hasher,
		store:     store,
		now:       time.Now,
	}
}

// Begin verifies the credentials and opens a session. Any mismatch, including an
// unknown email, yields ErrInvalidCredentials.
func (s *Sessions) Begin(ctx context.Context, email, password string) (*Session, error) {
	producer, err := s.producers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Sessions.WithLabelValues("failed").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find producer: %w", err)
	}
	if !s.hasher.Compare(producer.CryptedPassword, producer.Salt, password) {
		metrics.Sessions.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	session, err := s.Issue(ctx, producer)
	if err != nil {
		return nil, err
	}
	metrics.Sessions.WithLabelValues("started").Inc()
	slog.Info("session started", slog.String("producer_id", producer.ID.String()))
	return session, nil
}

// Issue opens a session for an already authenticated producer.
func (s *Sessions) Issue(ctx context.Context, producer *model.Producer) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		Email: producer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   producer.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	if err := s.store.Save(ctx, claims.ID, producer.ID, s.ttl); err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  &Identity{ProducerID: producer.ID, Email: producer.Email},
	}, nil
}

// Verify returns the identity behind a live session token.
func (s *Sessions) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	live, err := s.store.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, fmt.Errorf("session revoked: %w", ErrInvalidToken)
	}
	producerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("bad subject: %w", ErrInvalidToken)
	}
	return &Identity{ProducerID: producerID, Email: claims.Email}, nil
}

// End revokes the session behind token. It never fails: an unknown or broken
// token simply has nothing to revoke.
func (s *Sessions) End(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := s.parse(token)
	if err != nil {
		return
	}
	if err := s.store.Delete(ctx, claims.ID); err != nil {
		slog.Warn("failed to revoke session", slog.Any("err", err))
	}
}

func (s *Sessions) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
