package ports

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type ReservationStore interface {
	// Reserve commits a reservation for windowID. Checks run in this order:
	// model.ErrNotFound, model.ErrPastWindow, model.ErrDuplicateClientBooking,
	// then the store's uniqueness constraint on the window (model.ErrAlreadyReserved).
	Reserve(ctx context.Context, clientID, windowID string, now time.Time) (model.ReservationDetail, error)
	// Cancel removes the reservation if requesterID owns it and its window is still future.
	Cancel(ctx context.Context, reservationID, requesterID string, now time.Time) (model.ReservationDetail, error)
	GetReservation(ctx context.Context, reservationID string) (model.ReservationDetail, error)
	ListByClient(ctx context.Context, clientID string) ([]model.ReservationDetail, error)
	ListFutureByClient(ctx context.Context, clientID string, now time.Time) ([]model.ReservationDetail, error)
	ListReservationsByProvider(ctx context.Context, providerID string) ([]model.ReservationDetail, error)
}
