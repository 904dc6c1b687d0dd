package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

const reservationColumns = `r.id::text, r.client_id, r.window_id::text, r.created_at, ` + windowColumns

func reservationDest(d *model.ReservationDetail) []any {
	return append([]any{&d.Reservation.ID, &d.Reservation.ClientID, &d.Reservation.WindowID, &d.Reservation.CreatedAt}, windowDest(&d.Window)...)
}

func utcDetail(d model.ReservationDetail) model.ReservationDetail {
	d.Reservation.CreatedAt = d.Reservation.CreatedAt.UTC()
	d.Window = utcWindow(d.Window)
	return d
}

// Reserve locks the window FOR SHARE so a concurrent reschedule or retire
// waits, then inserts. Concurrent bookings of one window are decided by the
// unique index on reservations.window_id.
func (s *Store) Reserve(ctx context.Context, clientID, windowID string, now time.Time) (model.ReservationDetail, error) {
	var d model.ReservationDetail
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT `+windowColumns+`
			FROM time_windows w
			WHERE w.id = $1
			FOR SHARE
		`, windowID).Scan(windowDest(&d.Window)...)
		if err != nil {
			return mapError(err)
		}
		if !d.Window.IsFuture(now) {
			return fmt.Errorf("%w: cannot reserve past time slots", model.ErrPastWindow)
		}

		var duplicate bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM reservations WHERE window_id = $1 AND client_id = $2)
		`, windowID, clientID).Scan(&duplicate); err != nil {
			return err
		}
		if duplicate {
			return fmt.Errorf("%w: you already have a reservation for this time slot", model.ErrDuplicateClientBooking)
		}

		return tx.QueryRow(ctx, `
			INSERT INTO reservations (client_id, window_id)
			VALUES ($1, $2)
			RETURNING id::text, client_id, window_id::text, created_at
		`, clientID, windowID).Scan(&d.Reservation.ID, &d.Reservation.ClientID, &d.Reservation.WindowID, &d.Reservation.CreatedAt)
	})
	if err != nil {
		return model.ReservationDetail{}, err
	}
	return utcDetail(d), nil
}

func (s *Store) Cancel(ctx context.Context, reservationID, requesterID string, now time.Time) (model.ReservationDetail, error) {
	var d model.ReservationDetail
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT `+reservationColumns+`
			FROM reservations r
			JOIN time_windows w ON w.id = r.window_id
			WHERE r.id = $1
			FOR UPDATE OF r
		`, reservationID).Scan(reservationDest(&d)...)
		if err != nil {
			return mapError(err)
		}
		if d.Reservation.ClientID != requesterID {
			return fmt.Errorf("%w: you can only cancel your own reservations", model.ErrForbidden)
		}
		if !d.Window.IsFuture(now) {
			return fmt.Errorf("%w: cannot cancel past reservations", model.ErrPastWindow)
		}
		_, err = tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, reservationID)
		return err
	})
	if err != nil {
		return model.ReservationDetail{}, err
	}
	return utcDetail(d), nil
}

func (s *Store) GetReservation(ctx context.Context, reservationID string) (model.ReservationDetail, error) {
	var d model.ReservationDetail
	err := s.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r
		JOIN time_windows w ON w.id = r.window_id
		WHERE r.id = $1
	`, reservationID).Scan(reservationDest(&d)...)
	if err != nil {
		return model.ReservationDetail{}, mapError(err)
	}
	return utcDetail(d), nil
}

func (s *Store) ListByClient(ctx context.Context, clientID string) ([]model.ReservationDetail, error) {
	return s.listReservations(ctx, `WHERE r.client_id = $1`, clientID)
}

func (s *Store) ListFutureByClient(ctx context.Context, clientID string, now time.Time) ([]model.ReservationDetail, error) {
	return s.listReservations(ctx, `WHERE r.client_id = $1 AND w.start_time > $2`, clientID, now)
}

func (s *Store) ListReservationsByProvider(ctx context.Context, providerID string) ([]model.ReservationDetail, error) {
	return s.listReservations(ctx, `WHERE w.provider_id = $1`, providerID)
}

func (s *Store) listReservations(ctx context.Context, where string, args ...any) ([]model.ReservationDetail, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations r
		JOIN time_windows w ON w.id = r.window_id
		`+where+`
		ORDER BY r.created_at DESC, r.id DESC
	`, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]model.ReservationDetail, 0)
	for rows.Next() {
		var d model.ReservationDetail
		if err := rows.Scan(reservationDest(&d)...); err != nil {
			return nil, mapError(err)
		}
		out = append(out, utcDetail(d))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}
