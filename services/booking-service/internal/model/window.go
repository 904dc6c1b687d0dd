package model

import (
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/interval"
)

// TimeWindow is a provider's bookable slot. ProviderID is immutable after creation.
type TimeWindow struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	Start      time.Time `json:"start_time"`
	End        time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (w TimeWindow) Interval() interval.Interval {
	return interval.New(w.Start, w.End)
}

func (w TimeWindow) IsFuture(now time.Time) bool {
	return w.Interval().IsFuture(now)
}

// WindowDetail is a window together with its reservation, if any.
type WindowDetail struct {
	Window      TimeWindow
	Reservation *Reservation
}

func (d WindowDetail) IsAvailable() bool {
	return d.Reservation == nil
}
