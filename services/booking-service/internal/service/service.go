// Package service holds the booking core: SlotService for providers and
// BookingService for clients. Both evaluate the policy table once per call,
// delegate atomicity to the stores and keep the availability cache fresh.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service/ports"
)

// AvailableWindowsKey is the cache key for future unreserved windows.
const AvailableWindowsKey = "available_future_windows"

var tracer = otel.Tracer("github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service")

// storageErr passes typed failures through and turns anything else into
// model.ErrStorage after logging it.
func storageErr(ctx context.Context, logger *slog.Logger, op string, err error) error {
	if err == nil || model.IsExpected(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Error("storage failure", "op", op, "err", err)
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	if errors.Is(err, model.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", model.ErrStorage, op, err)
}

// invalidate runs after a committed write, so a failure only leaves a stale
// entry that expires with its TTL.
func invalidate(ctx context.Context, cache ports.Cache, logger *slog.Logger) {
	if err := cache.Invalidate(context.WithoutCancel(ctx), AvailableWindowsKey); err != nil {
		logger.Warn("availability cache invalidate failed", "err", err)
	}
}
