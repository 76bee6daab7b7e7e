package repository

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrStoreUnavailable is returned after a transient store failure
	// survives every retry attempt.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned when a write targets a row that does not
	// exist. Reads surface pgx.ErrNoRows instead.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an insert collides with an existing
	// unique key.
	ErrConflict = errors.New("record already exists")
)

// RetryPolicy bounds how write operations respond to transient store errors.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// IsTransient reports whether an error is worth retrying: connection-class
// Postgres failures, serialization/deadlock aborts, and network timeouts.
// Constraint violations and not-found conditions are permanent.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions. 40001/40P01: retryable tx aborts.
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return true
		}
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// withRetry runs fn up to p.Attempts times, sleeping p.Backoff doubled per
// attempt between tries. Permanent errors are returned immediately; a
// transient error that exhausts all attempts is wrapped in
// ErrStoreUnavailable so callers can map it without inspecting driver types.
func withRetry(ctx context.Context, p RetryPolicy, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	backoff := p.Backoff
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return errors.Join(ErrStoreUnavailable, err)
}
