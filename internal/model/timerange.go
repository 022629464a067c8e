package model

import "time"

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Ranges that
// merely touch (one ends exactly where the other starts) do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Contains reports whether t falls inside the interval: Start <= t < End.
func (r TimeRange) Contains(t time.Time) bool {
	return !r.Start.After(t) && t.Before(r.End)
}

func (r TimeRange) IsValid() bool {
	return r.Start.Before(r.End)
}
