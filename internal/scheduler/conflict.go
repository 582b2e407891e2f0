package scheduler

import "time"

// Interval is a half-open reservation interval [Start, End) on a resource.
type Interval struct {
	ReservationID int64
	ResourceID    int64
	Start         time.Time
	End           time.Time
}

// Conflict identifies an existing interval that overlaps a candidate.
type Conflict struct {
	WithReservationID int64
	ResourceID        int64
}

// Overlaps reports whether the candidate [start, end) overlaps any existing
// interval under half-open semantics: touching endpoints do not overlap.
// The existing slice must already be filtered to the candidate's resource and
// to the calendar day(s) the candidate touches.
func Overlaps(existing []Interval, start, end time.Time) bool {
	for _, e := range existing {
		if start.Before(e.End) && end.After(e.Start) {
			return true
		}
	}
	return false
}

// DetectConflicts returns every existing interval the candidate overlaps,
// preserving the order of the existing slice.
func DetectConflicts(existing []Interval, start, end time.Time) []Conflict {
	var conflicts []Conflict
	for _, e := range existing {
		if start.Before(e.End) && end.After(e.Start) {
			conflicts = append(conflicts, Conflict{
				WithReservationID: e.ReservationID,
				ResourceID:        e.ResourceID,
			})
		}
	}
	return conflicts
}
