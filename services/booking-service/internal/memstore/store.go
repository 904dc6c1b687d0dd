// Package memstore keeps windows and reservations in process memory.
//
// A single mutex serializes every write, which gives the same guarantees the
// Postgres store gets from its advisory lock, exclusion constraint and unique
// index: at most one reservation per window and no overlapping windows per
// provider.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service/ports"
)

type reservationRecord struct {
	model.Reservation
	seq uint64
}

type Store struct {
	mu           sync.RWMutex
	windows      map[string]model.TimeWindow
	reservations map[string]reservationRecord
	byWindow     map[string]string // window id -> reservation id
	seq          uint64

	newID func() string
	now   func() time.Time
}

type Option func(*Store)

// WithIDs overrides id generation.
func WithIDs(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithTimestamps overrides the clock used for created_at/updated_at.
func WithTimestamps(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func New(opts ...Option) *Store {
	s := &Store{
		windows:      make(map[string]model.TimeWindow),
		reservations: make(map[string]reservationRecord),
		byWindow:     make(map[string]string),
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ ports.WindowStore      = (*Store)(nil)
	_ ports.ReservationStore = (*Store)(nil)
)

func (s *Store) WithProviderLock(ctx context.Context, providerID string, fn func(ctx context.Context, tx ports.WindowTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &windowTx{s: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) Get(_ context.Context, windowID string) (model.WindowDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[windowID]
	if !ok {
		return model.WindowDetail{}, fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	return s.detailLocked(w), nil
}

func (s *Store) ListByProvider(_ context.Context, providerID string) ([]model.WindowDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WindowDetail, 0)
	for _, w := range s.windows {
		if w.ProviderID == providerID {
			out = append(out, s.detailLocked(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return byStart(out[i].Window, out[j].Window)
	})
	return out, nil
}

func (s *Store) ListAvailable(_ context.Context, now time.Time) ([]model.TimeWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TimeWindow, 0)
	for id, w := range s.windows {
		if _, reserved := s.byWindow[id]; reserved {
			continue
		}
		if w.IsFuture(now) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return byStart(out[i], out[j]) })
	return out, nil
}

func (s *Store) Reserve(ctx context.Context, clientID, windowID string, now time.Time) (model.ReservationDetail, error) {
	if err := ctx.Err(); err != nil {
		return model.ReservationDetail{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[windowID]
	if !ok {
		return model.ReservationDetail{}, fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	if !w.IsFuture(now) {
		return model.ReservationDetail{}, fmt.Errorf("%w: cannot reserve past time slots", model.ErrPastWindow)
	}
	if resID, taken := s.byWindow[windowID]; taken {
		if s.reservations[resID].ClientID == clientID {
			return model.ReservationDetail{}, fmt.Errorf("%w: you already have a reservation for this time slot", model.ErrDuplicateClientBooking)
		}
		return model.ReservationDetail{}, fmt.Errorf("%w: this time slot is no longer available", model.ErrAlreadyReserved)
	}

	s.seq++
	rec := reservationRecord{
		Reservation: model.Reservation{
			ID:        s.newID(),
			ClientID:  clientID,
			WindowID:  windowID,
			CreatedAt: s.now(),
		},
		seq: s.seq,
	}
	s.reservations[rec.ID] = rec
	s.byWindow[windowID] = rec.ID
	return model.ReservationDetail{Reservation: rec.Reservation, Window: w}, nil
}

func (s *Store) Cancel(ctx context.Context, reservationID, requesterID string, now time.Time) (model.ReservationDetail, error) {
	if err := ctx.Err(); err != nil {
		return model.ReservationDetail{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.reservations[reservationID]
	if !ok {
		return model.ReservationDetail{}, fmt.Errorf("%w: reservation %s", model.ErrNotFound, reservationID)
	}
	if rec.ClientID != requesterID {
		return model.ReservationDetail{}, fmt.Errorf("%w: you can only cancel your own reservations", model.ErrForbidden)
	}
	w := s.windows[rec.WindowID]
	if !w.IsFuture(now) {
		return model.ReservationDetail{}, fmt.Errorf("%w: cannot cancel past reservations", model.ErrPastWindow)
	}
	delete(s.reservations, reservationID)
	delete(s.byWindow, rec.WindowID)
	return model.ReservationDetail{Reservation: rec.Reservation, Window: w}, nil
}

func (s *Store) GetReservation(_ context.Context, reservationID string) (model.ReservationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.reservations[reservationID]
	if !ok {
		return model.ReservationDetail{}, fmt.Errorf("%w: reservation %s", model.ErrNotFound, reservationID)
	}
	return model.ReservationDetail{Reservation: rec.Reservation, Window: s.windows[rec.WindowID]}, nil
}

func (s *Store) ListByClient(_ context.Context, clientID string) ([]model.ReservationDetail, error) {
	return s.listReservations(func(rec reservationRecord, _ model.TimeWindow) bool {
		return rec.ClientID == clientID
	}), nil
}

func (s *Store) ListFutureByClient(_ context.Context, clientID string, now time.Time) ([]model.ReservationDetail, error) {
	return s.listReservations(func(rec reservationRecord, w model.TimeWindow) bool {
		return rec.ClientID == clientID && w.IsFuture(now)
	}), nil
}

func (s *Store) ListReservationsByProvider(_ context.Context, providerID string) ([]model.ReservationDetail, error) {
	return s.listReservations(func(_ reservationRecord, w model.TimeWindow) bool {
		return w.ProviderID == providerID
	}), nil
}

// listReservations returns matches newest first.
func (s *Store) listReservations(match func(reservationRecord, model.TimeWindow) bool) []model.ReservationDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]reservationRecord, 0)
	for _, rec := range s.reservations {
		if match(rec, s.windows[rec.WindowID]) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	out := make([]model.ReservationDetail, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.ReservationDetail{Reservation: rec.Reservation, Window: s.windows[rec.WindowID]})
	}
	return out
}

func (s *Store) detailLocked(w model.TimeWindow) model.WindowDetail {
	d := model.WindowDetail{Window: w}
	if resID, ok := s.byWindow[w.ID]; ok {
		res := s.reservations[resID].Reservation
		d.Reservation = &res
	}
	return d
}

func byStart(a, b model.TimeWindow) bool {
	if a.Start.Equal(b.Start) {
		return a.ID < b.ID
	}
	return a.Start.Before(b.Start)
}

// windowTx mutates the maps directly while s.mu is held and keeps an undo
// log so a failed unit of work leaves no trace.
type windowTx struct {
	s    *Store
	undo []func()
}

func (tx *windowTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *windowTx) FindOverlapping(_ context.Context, providerID string, proposed interval.Interval, excludeID string) (bool, error) {
	return tx.overlaps(providerID, proposed, excludeID), nil
}

func (tx *windowTx) overlaps(providerID string, proposed interval.Interval, excludeID string) bool {
	for id, w := range tx.s.windows {
		if w.ProviderID != providerID || id == excludeID {
			continue
		}
		if interval.Overlaps(w.Interval(), proposed) {
			return true
		}
	}
	return false
}

func (tx *windowTx) Create(_ context.Context, providerID string, iv interval.Interval) (model.TimeWindow, error) {
	if !iv.IsValid() {
		return model.TimeWindow{}, fmt.Errorf("%w: end time must be after start time", model.ErrValidation)
	}
	if tx.overlaps(providerID, iv, "") {
		return model.TimeWindow{}, fmt.Errorf("%w: this time slot conflicts with your existing time slots", model.ErrOverlap)
	}
	now := tx.s.now()
	w := model.TimeWindow{
		ID:         tx.s.newID(),
		ProviderID: providerID,
		Start:      iv.Start.UTC(),
		End:        iv.End.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tx.s.windows[w.ID] = w
	tx.undo = append(tx.undo, func() { delete(tx.s.windows, w.ID) })
	return w, nil
}

func (tx *windowTx) GetForUpdate(_ context.Context, windowID string) (model.TimeWindow, error) {
	w, ok := tx.s.windows[windowID]
	if !ok {
		return model.TimeWindow{}, fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	return w, nil
}

func (tx *windowTx) IsAvailable(_ context.Context, windowID string) (bool, error) {
	if _, ok := tx.s.windows[windowID]; !ok {
		return false, fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	_, reserved := tx.s.byWindow[windowID]
	return !reserved, nil
}

func (tx *windowTx) Update(_ context.Context, windowID string, iv interval.Interval) (model.TimeWindow, error) {
	old, ok := tx.s.windows[windowID]
	if !ok {
		return model.TimeWindow{}, fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	if _, reserved := tx.s.byWindow[windowID]; reserved {
		return model.TimeWindow{}, fmt.Errorf("%w: cannot update a reserved time slot", model.ErrConflict)
	}
	if !iv.IsValid() {
		return model.TimeWindow{}, fmt.Errorf("%w: end time must be after start time", model.ErrValidation)
	}
	if tx.overlaps(old.ProviderID, iv, windowID) {
		return model.TimeWindow{}, fmt.Errorf("%w: this time slot conflicts with your existing time slots", model.ErrOverlap)
	}
	w := old
	w.Start = iv.Start.UTC()
	w.End = iv.End.UTC()
	w.UpdatedAt = tx.s.now()
	tx.s.windows[windowID] = w
	tx.undo = append(tx.undo, func() { tx.s.windows[windowID] = old })
	return w, nil
}

func (tx *windowTx) Delete(_ context.Context, windowID string) error {
	old, ok := tx.s.windows[windowID]
	if !ok {
		return fmt.Errorf("%w: time slot %s", model.ErrNotFound, windowID)
	}
	if _, reserved := tx.s.byWindow[windowID]; reserved {
		return fmt.Errorf("%w: cannot delete a reserved time slot", model.ErrConflict)
	}
	delete(tx.s.windows, windowID)
	tx.undo = append(tx.undo, func() { tx.s.windows[windowID] = old })
	return nil
}
