package ports

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// Cache is the availability cache. dest receives the cached or produced value.
type Cache interface {
	GetOrPopulate(ctx context.Context, key string, ttl time.Duration, dest any, produce func(context.Context) (any, error)) error
	Invalidate(ctx context.Context, key string) error
}

// Notifier hands a committed reservation to the notification collaborator.
// A returned error never undoes the reservation.
type Notifier interface {
	ReservationCreated(ctx context.Context, evt model.ReservationCreated) error
}
