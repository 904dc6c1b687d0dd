package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service/ports"
)

func (s *Store) WithProviderLock(ctx context.Context, providerID string, fn func(ctx context.Context, tx ports.WindowTx) error) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "provider:"+providerID); err != nil {
			return err
		}
		return fn(ctx, &windowTx{tx: tx})
	})
}

func (s *Store) Get(ctx context.Context, windowID string) (model.WindowDetail, error) {
	var (
		w   model.TimeWindow
		res nullableReservation
	)
	err := s.pool.QueryRow(ctx, `
		SELECT `+windowColumns+`, r.id::text, r.client_id, r.created_at
		FROM time_windows w
		LEFT JOIN reservations r ON r.window_id = w.id
		WHERE w.id = $1
	`, windowID).Scan(append(windowDest(&w), res.dest()...)...)
	if err != nil {
		return model.WindowDetail{}, mapError(err)
	}
	w = utcWindow(w)
	return model.WindowDetail{Window: w, Reservation: res.reservation(w.ID)}, nil
}

func (s *Store) ListByProvider(ctx context.Context, providerID string) ([]model.WindowDetail, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+windowColumns+`, r.id::text, r.client_id, r.created_at
		FROM time_windows w
		LEFT JOIN reservations r ON r.window_id = w.id
		WHERE w.provider_id = $1
		ORDER BY w.start_time ASC, w.id ASC
	`, providerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]model.WindowDetail, 0)
	for rows.Next() {
		var (
			w   model.TimeWindow
			res nullableReservation
		)
		if err := rows.Scan(append(windowDest(&w), res.dest()...)...); err != nil {
			return nil, mapError(err)
		}
		w = utcWindow(w)
		out = append(out, model.WindowDetail{Window: w, Reservation: res.reservation(w.ID)})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (s *Store) ListAvailable(ctx context.Context, now time.Time) ([]model.TimeWindow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM time_windows w
		WHERE w.start_time > $1
			AND NOT EXISTS (SELECT 1 FROM reservations r WHERE r.window_id = w.id)
		ORDER BY w.start_time ASC, w.id ASC
	`, now)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]model.TimeWindow, 0)
	for rows.Next() {
		var w model.TimeWindow
		if err := rows.Scan(windowDest(&w)...); err != nil {
			return nil, mapError(err)
		}
		out = append(out, utcWindow(w))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

type windowTx struct {
	tx pgx.Tx
}

func (t *windowTx) FindOverlapping(ctx context.Context, providerID string, proposed interval.Interval, excludeID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM time_windows
			WHERE provider_id = $1
				AND id::text <> $2
				AND start_time < $4
				AND end_time > $3
		)
	`, providerID, excludeID, proposed.Start, proposed.End).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (t *windowTx) Create(ctx context.Context, providerID string, iv interval.Interval) (model.TimeWindow, error) {
	if !iv.IsValid() {
		return model.TimeWindow{}, fmt.Errorf("%w: end time must be after start time", model.ErrValidation)
	}
	var w model.TimeWindow
	err := t.tx.QueryRow(ctx, `
		INSERT INTO time_windows AS w (provider_id, start_time, end_time)
		VALUES ($1, $2, $3)
		RETURNING `+windowColumns,
		providerID, iv.Start, iv.End).Scan(windowDest(&w)...)
	if err != nil {
		return model.TimeWindow{}, mapError(err)
	}
	return utcWindow(w), nil
}

func (t *windowTx) GetForUpdate(ctx context.Context, windowID string) (model.TimeWindow, error) {
	var w model.TimeWindow
	err := t.tx.QueryRow(ctx, `
		SELECT `+windowColumns+`
		FROM time_windows w
		WHERE w.id = $1
		FOR UPDATE
	`, windowID).Scan(windowDest(&w)...)
	if err != nil {
		return model.TimeWindow{}, mapError(err)
	}
	return utcWindow(w), nil
}

func (t *windowTx) IsAvailable(ctx context.Context, windowID string) (bool, error) {
	var exists, reserved bool
	err := t.tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM time_windows WHERE id = $1),
			EXISTS (SELECT 1 FROM reservations WHERE window_id = $1)
	`, windowID).Scan(&exists, &reserved)
	if err != nil {
		return false, mapError(err)
	}
	if !exists {
		return false, fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	return !reserved, nil
}

func (t *windowTx) Update(ctx context.Context, windowID string, iv interval.Interval) (model.TimeWindow, error) {
	available, err := t.IsAvailable(ctx, windowID)
	if err != nil {
		return model.TimeWindow{}, err
	}
	if !available {
		return model.TimeWindow{}, fmt.Errorf("%w: cannot update a reserved time slot", model.ErrConflict)
	}
	if !iv.IsValid() {
		return model.TimeWindow{}, fmt.Errorf("%w: end time must be after start time", model.ErrValidation)
	}

	var w model.TimeWindow
	err = t.tx.QueryRow(ctx, `
		UPDATE time_windows AS w
		SET start_time = $2,
			end_time = $3,
			updated_at = now()
		WHERE w.id = $1
		RETURNING `+windowColumns,
		windowID, iv.Start, iv.End).Scan(windowDest(&w)...)
	if err != nil {
		return model.TimeWindow{}, mapError(err)
	}
	return utcWindow(w), nil
}

func (t *windowTx) Delete(ctx context.Context, windowID string) error {
	available, err := t.IsAvailable(ctx, windowID)
	if err != nil {
		return err
	}
	if !available {
		return fmt.Errorf("%w: cannot delete a reserved time slot", model.ErrConflict)
	}

	tag, err := t.tx.Exec(ctx, `DELETE FROM time_windows WHERE id = $1`, windowID)
	if err != nil {
		if isCode(err, codeForeignKey) {
			return fmt.Errorf("%w: cannot delete a reserved time slot", model.ErrConflict)
		}
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	return nil
}
