package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phrasebook/internal/domain"

	"github.com/lib/pq"
)

// mapError converts driver errors to domain errors.
// context.DeadlineExceeded and context.Canceled are not mapped.
func mapError(err error, entity string, key any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, key, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, key, domain.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %v: %w", entity, key, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %v: %w", entity, key, domain.ErrNotFound)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, key, err)
}
