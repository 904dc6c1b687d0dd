package interval

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Overlaps reports whether a and b share any instant.
//
// Half-open intervals: [a.Start,a.End) overlaps [b.Start,b.End) iff a.Start < b.End && b.Start < a.End.
// Intervals that only touch at a boundary do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// OverlapsAny reports whether iv overlaps any interval in others.
func OverlapsAny(iv Interval, others []Interval) bool {
	for _, o := range others {
		if Overlaps(iv, o) {
			return true
		}
	}
	return false
}

// IsValid reports whether the interval is non-empty and not inverted.
func (i Interval) IsValid() bool {
	if i.Start.IsZero() || i.End.IsZero() {
		return false
	}
	return i.Start.Before(i.End)
}

// IsFuture reports whether the interval starts strictly after now.
func (i Interval) IsFuture(now time.Time) bool {
	return i.Start.After(now)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) UTC() Interval {
	return Interval{Start: i.Start.UTC(), End: i.End.UTC()}
}
