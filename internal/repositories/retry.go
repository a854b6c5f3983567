package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	apperrors "purse/internal/errors"
)

// Postgres error codes that are safe to retry as a whole transaction.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// RetryPolicy bounds how often a failed store transaction is re-run.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// IsRetryableStoreError reports whether err is a transient store failure:
// serialization conflicts, deadlocks, lock timeouts and broken connections.
func IsRetryableStoreError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := apperrors.As(err); ok {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// WithRetry runs fn until it succeeds, fails with a non-transient error, or
// the policy is exhausted. Transient failures that outlive the policy, and
// timeouts, surface as ErrStoreUnavailable.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryableStoreError(err) || attempt >= policy.MaxRetries {
			break
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Msg("retrying ledger store transaction")

		wait := policy.Backoff * time.Duration(attempt+1)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
		case <-timer.C:
			continue
		}
		break
	}

	if IsRetryableStoreError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return err
}
