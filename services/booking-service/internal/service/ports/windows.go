package ports

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// WindowTx is the set of window operations that run while a provider's
// windows are locked. All calls see one consistent snapshot.
type WindowTx interface {
	// FindOverlapping reports whether any window owned by providerID other than
	// excludeID overlaps proposed.
	FindOverlapping(ctx context.Context, providerID string, proposed interval.Interval, excludeID string) (bool, error)
	Create(ctx context.Context, providerID string, iv interval.Interval) (model.TimeWindow, error)
	// GetForUpdate loads a window and holds it against concurrent bookings.
	GetForUpdate(ctx context.Context, windowID string) (model.TimeWindow, error)
	IsAvailable(ctx context.Context, windowID string) (bool, error)
	// Update fails with model.ErrConflict when the window is reserved.
	Update(ctx context.Context, windowID string, iv interval.Interval) (model.TimeWindow, error)
	// Delete fails with model.ErrConflict when the window is reserved.
	Delete(ctx context.Context, windowID string) error
}

type WindowStore interface {
	// WithProviderLock runs fn atomically with respect to every other writer of
	// providerID's windows. fn's error aborts the unit of work.
	WithProviderLock(ctx context.Context, providerID string, fn func(ctx context.Context, tx WindowTx) error) error
	Get(ctx context.Context, windowID string) (model.WindowDetail, error)
	ListByProvider(ctx context.Context, providerID string) ([]model.WindowDetail, error)
	// ListAvailable returns unreserved windows starting after now, sorted by start.
	ListAvailable(ctx context.Context, now time.Time) ([]model.TimeWindow, error)
}
