package service

import (
	"context"
	"log/slog"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service/ports"
)

type BookingService struct {
	reservations ports.ReservationStore
	cache        ports.Cache
	notifier     ports.Notifier
	clock        clock.Clock
	logger       *slog.Logger
}

func NewBookingService(reservations ports.ReservationStore, cache ports.Cache, notifier ports.Notifier, clk clock.Clock, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		reservations: reservations,
		cache:        cache,
		notifier:     notifier,
		clock:        clk,
		logger:       logger,
	}
}

// Book reserves windowID for the acting client. Exactly one of any number of
// concurrent calls for the same window succeeds.
func (s *BookingService) Book(ctx context.Context, actor model.Identity, windowID string) (model.ReservationDetail, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Book")
	defer span.End()

	if err := policy.Authorize(policy.ActionBook, policy.Request{Actor: actor}); err != nil {
		return model.ReservationDetail{}, err
	}
	d, err := s.reservations.Reserve(ctx, actor.ID, windowID, s.clock.Now())
	if err != nil {
		return model.ReservationDetail{}, storageErr(ctx, s.logger, "book window", err)
	}

	if s.notifier != nil {
		if err := s.notifier.ReservationCreated(context.WithoutCancel(ctx), model.NewReservationCreated(d)); err != nil {
			s.logger.Warn("reservation notification hand-off failed", "reservation_id", d.Reservation.ID, "err", err)
		}
	}
	invalidate(ctx, s.cache, s.logger)
	s.logger.Info("reservation created", "reservation_id", d.Reservation.ID, "window_id", windowID, "client_id", actor.ID)
	return d, nil
}

// Cancel deletes the actor's reservation while its window is still future.
func (s *BookingService) Cancel(ctx context.Context, actor model.Identity, reservationID string) error {
	ctx, span := tracer.Start(ctx, "BookingService.Cancel")
	defer span.End()

	if err := policy.Authorize(policy.ActionCancel, policy.Request{Actor: actor}); err != nil {
		return err
	}
	if _, err := s.reservations.Cancel(ctx, reservationID, actor.ID, s.clock.Now()); err != nil {
		return storageErr(ctx, s.logger, "cancel reservation", err)
	}
	invalidate(ctx, s.cache, s.logger)
	s.logger.Info("reservation cancelled", "reservation_id", reservationID, "client_id", actor.ID)
	return nil
}

// Get is visible to the reservation's client and to the window's provider.
func (s *BookingService) Get(ctx context.Context, actor model.Identity, reservationID string) (model.ReservationDetail, error) {
	ctx, span := tracer.Start(ctx, "BookingService.Get")
	defer span.End()

	d, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return model.ReservationDetail{}, storageErr(ctx, s.logger, "get reservation", err)
	}
	req := policy.Request{Actor: actor, OwnerID: d.Reservation.ClientID, ProviderID: d.Window.ProviderID}
	if err := policy.Authorize(policy.ActionViewReservation, req); err != nil {
		return model.ReservationDetail{}, err
	}
	return d, nil
}

// ListForClient returns the actor's reservations, newest first.
func (s *BookingService) ListForClient(ctx context.Context, actor model.Identity) ([]model.ReservationDetail, error) {
	ctx, span := tracer.Start(ctx, "BookingService.ListForClient")
	defer span.End()

	if err := policy.Authorize(policy.ActionListOwnReservations, policy.Request{Actor: actor}); err != nil {
		return nil, err
	}
	out, err := s.reservations.ListByClient(ctx, actor.ID)
	if err != nil {
		return nil, storageErr(ctx, s.logger, "list client reservations", err)
	}
	return out, nil
}

func (s *BookingService) ListFutureForClient(ctx context.Context, actor model.Identity) ([]model.ReservationDetail, error) {
	ctx, span := tracer.Start(ctx, "BookingService.ListFutureForClient")
	defer span.End()

	if err := policy.Authorize(policy.ActionListOwnReservations, policy.Request{Actor: actor}); err != nil {
		return nil, err
	}
	out, err := s.reservations.ListFutureByClient(ctx, actor.ID, s.clock.Now())
	if err != nil {
		return nil, storageErr(ctx, s.logger, "list future client reservations", err)
	}
	return out, nil
}

// ListForProvider returns reservations on the actor's windows, newest first.
func (s *BookingService) ListForProvider(ctx context.Context, actor model.Identity) ([]model.ReservationDetail, error) {
	ctx, span := tracer.Start(ctx, "BookingService.ListForProvider")
	defer span.End()

	if err := policy.Authorize(policy.ActionListProviderBookings, policy.Request{Actor: actor}); err != nil {
		return nil, err
	}
	out, err := s.reservations.ListReservationsByProvider(ctx, actor.ID)
	if err != nil {
		return nil, storageErr(ctx, s.logger, "list provider reservations", err)
	}
	return out, nil
}
