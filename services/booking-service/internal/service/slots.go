package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service/ports"
)

type SlotService struct {
	windows      ports.WindowStore
	cache        ports.Cache
	clock        clock.Clock
	logger       *slog.Logger
	availableTTL time.Duration
}

func NewSlotService(windows ports.WindowStore, cache ports.Cache, clk clock.Clock, logger *slog.Logger, availableTTL time.Duration) *SlotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlotService{
		windows:      windows,
		cache:        cache,
		clock:        clk,
		logger:       logger,
		availableTTL: availableTTL,
	}
}

// Publish creates a window for the acting provider.
func (s *SlotService) Publish(ctx context.Context, actor model.Identity, start, end time.Time) (model.TimeWindow, error) {
	ctx, span := tracer.Start(ctx, "SlotService.Publish")
	defer span.End()

	if err := policy.Authorize(policy.ActionPublishWindow, policy.Request{Actor: actor}); err != nil {
		return model.TimeWindow{}, err
	}
	iv := interval.New(start, end).UTC()
	if err := validateProposed(iv, s.clock.Now()); err != nil {
		return model.TimeWindow{}, err
	}

	var created model.TimeWindow
	err := s.windows.WithProviderLock(ctx, actor.ID, func(ctx context.Context, tx ports.WindowTx) error {
		overlaps, err := tx.FindOverlapping(ctx, actor.ID, iv, "")
		if err != nil {
			return err
		}
		if overlaps {
			return fmt.Errorf("%w: this time slot conflicts with your existing time slots", model.ErrOverlap)
		}
		created, err = tx.Create(ctx, actor.ID, iv)
		return err
	})
	if err != nil {
		return model.TimeWindow{}, storageErr(ctx, s.logger, "publish window", err)
	}

	invalidate(ctx, s.cache, s.logger)
	s.logger.Info("window published", "window_id", created.ID, "provider_id", actor.ID)
	return created, nil
}

// Reschedule moves an unreserved window owned by the actor to new bounds.
// The window's current start may already be past; the new bounds may not.
func (s *SlotService) Reschedule(ctx context.Context, actor model.Identity, windowID string, start, end time.Time) (model.TimeWindow, error) {
	ctx, span := tracer.Start(ctx, "SlotService.Reschedule")
	defer span.End()

	iv := interval.New(start, end).UTC()
	now := s.clock.Now()

	var updated model.TimeWindow
	err := s.windows.WithProviderLock(ctx, actor.ID, func(ctx context.Context, tx ports.WindowTx) error {
		current, err := tx.GetForUpdate(ctx, windowID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(policy.ActionRescheduleWindow, policy.Request{Actor: actor, OwnerID: current.ProviderID}); err != nil {
			return err
		}
		available, err := tx.IsAvailable(ctx, windowID)
		if err != nil {
			return err
		}
		if !available {
			return fmt.Errorf("%w: cannot update a reserved time slot", model.ErrConflict)
		}
		if err := validateProposed(iv, now); err != nil {
			return err
		}
		overlaps, err := tx.FindOverlapping(ctx, actor.ID, iv, windowID)
		if err != nil {
			return err
		}
		if overlaps {
			return fmt.Errorf("%w: this time slot conflicts with your existing time slots", model.ErrOverlap)
		}
		updated, err = tx.Update(ctx, windowID, iv)
		return err
	})
	if err != nil {
		return model.TimeWindow{}, storageErr(ctx, s.logger, "reschedule window", err)
	}

	invalidate(ctx, s.cache, s.logger)
	s.logger.Info("window rescheduled", "window_id", windowID, "provider_id", actor.ID)
	return updated, nil
}

// Retire deletes an unreserved window owned by the actor.
func (s *SlotService) Retire(ctx context.Context, actor model.Identity, windowID string) error {
	ctx, span := tracer.Start(ctx, "SlotService.Retire")
	defer span.End()

	err := s.windows.WithProviderLock(ctx, actor.ID, func(ctx context.Context, tx ports.WindowTx) error {
		current, err := tx.GetForUpdate(ctx, windowID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(policy.ActionRetireWindow, policy.Request{Actor: actor, OwnerID: current.ProviderID}); err != nil {
			return err
		}
		available, err := tx.IsAvailable(ctx, windowID)
		if err != nil {
			return err
		}
		if !available {
			return fmt.Errorf("%w: cannot delete a reserved time slot", model.ErrConflict)
		}
		return tx.Delete(ctx, windowID)
	})
	if err != nil {
		return storageErr(ctx, s.logger, "retire window", err)
	}

	invalidate(ctx, s.cache, s.logger)
	s.logger.Info("window retired", "window_id", windowID, "provider_id", actor.ID)
	return nil
}

func (s *SlotService) Get(ctx context.Context, windowID string) (model.WindowDetail, error) {
	ctx, span := tracer.Start(ctx, "SlotService.Get")
	defer span.End()

	d, err := s.windows.Get(ctx, windowID)
	if err != nil {
		return model.WindowDetail{}, storageErr(ctx, s.logger, "get window", err)
	}
	return d, nil
}

// ListOwn returns the actor's windows ordered by start.
func (s *SlotService) ListOwn(ctx context.Context, actor model.Identity) ([]model.WindowDetail, error) {
	ctx, span := tracer.Start(ctx, "SlotService.ListOwn")
	defer span.End()

	if err := policy.Authorize(policy.ActionListOwnWindows, policy.Request{Actor: actor}); err != nil {
		return nil, err
	}
	out, err := s.windows.ListByProvider(ctx, actor.ID)
	if err != nil {
		return nil, storageErr(ctx, s.logger, "list own windows", err)
	}
	return out, nil
}

// ListAvailable returns future unreserved windows sorted by start. Cached
// entries can outlive a window's start, so they are filtered again on read.
func (s *SlotService) ListAvailable(ctx context.Context) ([]model.TimeWindow, error) {
	ctx, span := tracer.Start(ctx, "SlotService.ListAvailable")
	defer span.End()

	var cached []model.TimeWindow
	err := s.cache.GetOrPopulate(ctx, AvailableWindowsKey, s.availableTTL, &cached, func(ctx context.Context) (any, error) {
		return s.windows.ListAvailable(ctx, s.clock.Now())
	})
	if err != nil {
		return nil, storageErr(ctx, s.logger, "list available windows", err)
	}

	now := s.clock.Now()
	out := make([]model.TimeWindow, 0, len(cached))
	for _, w := range cached {
		if w.IsFuture(now) {
			out = append(out, w)
		}
	}
	return out, nil
}

func validateProposed(iv interval.Interval, now time.Time) error {
	if !iv.IsValid() {
		return fmt.Errorf("%w: end time must be after start time", model.ErrValidation)
	}
	if !iv.IsFuture(now) {
		return fmt.Errorf("%w: start time must be in the future", model.ErrValidation)
	}
	return nil
}
