// Package storage is the Postgres implementation of the window and
// reservation stores.
//
// Overlap freedom per provider is enforced by a transaction-scoped advisory
// lock held across scan and write, with an exclusion constraint behind it.
// At most one reservation per window is enforced by a unique index.
package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service/ports"
)

type Store struct {
	pool *db.Pool
}

func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

var (
	_ ports.WindowStore      = (*Store)(nil)
	_ ports.ReservationStore = (*Store)(nil)
)

// inTx runs fn in a transaction and commits when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return mapError(err)
	}
	return mapError(tx.Commit(ctx))
}

const windowColumns = `w.id::text, w.provider_id, w.start_time, w.end_time, w.created_at, w.updated_at`

func windowDest(w *model.TimeWindow) []any {
	return []any{&w.ID, &w.ProviderID, &w.Start, &w.End, &w.CreatedAt, &w.UpdatedAt}
}

func utcWindow(w model.TimeWindow) model.TimeWindow {
	w.Start = w.Start.UTC()
	w.End = w.End.UTC()
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w
}

// nullableReservation is the LEFT JOIN side of a window listing.
type nullableReservation struct {
	id        *string
	clientID  *string
	createdAt *time.Time
}

func (n *nullableReservation) dest() []any {
	return []any{&n.id, &n.clientID, &n.createdAt}
}

func (n nullableReservation) reservation(windowID string) *model.Reservation {
	if n.id == nil {
		return nil
	}
	r := &model.Reservation{ID: *n.id, WindowID: windowID}
	if n.clientID != nil {
		r.ClientID = *n.clientID
	}
	if n.createdAt != nil {
		r.CreatedAt = n.createdAt.UTC()
	}
	return r
}
