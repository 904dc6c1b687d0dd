package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// Postgres SQLSTATE codes the store translates.
const (
	codeInvalidText       = "22P02"
	codeForeignKey        = "23503"
	codeUniqueViolation   = "23505"
	codeCheckViolation    = "23514"
	codeExclusionViolated = "23P01"
)

// mapError turns driver errors into the model's error kinds. Typed errors and
// context cancellation pass through unchanged.
func mapError(err error) error {
	if err == nil || model.IsExpected(err) || errors.Is(err, model.ErrStorage) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", model.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: this time slot is no longer available", model.ErrAlreadyReserved)
		case codeExclusionViolated:
			return fmt.Errorf("%w: this time slot conflicts with your existing time slots", model.ErrOverlap)
		case codeForeignKey, codeInvalidText:
			return fmt.Errorf("%w: %s", model.ErrNotFound, pgErr.Message)
		case codeCheckViolation:
			return fmt.Errorf("%w: %s", model.ErrValidation, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", model.ErrStorage, err)
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
