package persistence

import "context"

// Snapshot is the complete persisted state of the workshop: every record the
// engine consults lives here. Commands operate on a copy and hand the whole
// snapshot back to the store, mirroring the workbook-wholesale save of the
// original system.
type Snapshot struct {
	Members       []Member
	Licences      []Licence
	Grants        []Grant
	Resources     []Resource
	WeeklyHours   []WeeklyHours
	ClosedDates   []ClosedDate
	Reservations  []Reservation
	ServiceEvents []ServiceEvent
	Issues        []IssueReport
}

// SnapshotStore loads and durably saves complete snapshots. Save must be
// atomic: either the whole snapshot is persisted or the previously stored
// snapshot remains the system of record.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
}

// Clone returns a deep copy of the snapshot so callers can stage mutations
// without touching the committed state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Members:       append([]Member(nil), s.Members...),
		Licences:      append([]Licence(nil), s.Licences...),
		Grants:        append([]Grant(nil), s.Grants...),
		Resources:     make([]Resource, len(s.Resources)),
		WeeklyHours:   append([]WeeklyHours(nil), s.WeeklyHours...),
		ClosedDates:   append([]ClosedDate(nil), s.ClosedDates...),
		Reservations:  append([]Reservation(nil), s.Reservations...),
		ServiceEvents: append([]ServiceEvent(nil), s.ServiceEvents...),
		Issues:        append([]IssueReport(nil), s.Issues...),
	}
	for i, r := range s.Resources {
		out.Resources[i] = r
		if r.RequiredLicenceID != nil {
			id := *r.RequiredLicenceID
			out.Resources[i].RequiredLicenceID = &id
		}
		if r.LastServiceAt != nil {
			at := *r.LastServiceAt
			out.Resources[i].LastServiceAt = &at
		}
	}
	return out
}

// MemberByID returns the member with the given id, if present.
func (s Snapshot) MemberByID(id int64) (Member, bool) {
	for _, m := range s.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// LicenceByID returns the licence with the given id, if present.
func (s Snapshot) LicenceByID(id int64) (Licence, bool) {
	for _, l := range s.Licences {
		if l.ID == id {
			return l, true
		}
	}
	return Licence{}, false
}

// ResourceByID returns the resource with the given id, if present.
func (s Snapshot) ResourceByID(id int64) (Resource, bool) {
	for _, r := range s.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}

// ReservationByID returns the reservation with the given id, if present.
func (s Snapshot) ReservationByID(id int64) (Reservation, bool) {
	for _, r := range s.Reservations {
		if r.ID == id {
			return r, true
		}
	}
	return Reservation{}, false
}

// NextReservationID returns the id a newly committed reservation receives:
// one past the maximum committed id, globally monotonic across resources.
func (s Snapshot) NextReservationID() int64 {
	var max int64
	for _, r := range s.Reservations {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// NextMemberID returns the next free member identifier.
func (s Snapshot) NextMemberID() int64 {
	var max int64
	for _, m := range s.Members {
		if m.ID > max {
			max = m.ID
		}
	}
	return max + 1
}

// NextLicenceID returns the next free licence identifier.
func (s Snapshot) NextLicenceID() int64 {
	var max int64
	for _, l := range s.Licences {
		if l.ID > max {
			max = l.ID
		}
	}
	return max + 1
}

// NextResourceID returns the next free resource identifier.
func (s Snapshot) NextResourceID() int64 {
	var max int64
	for _, r := range s.Resources {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// NextServiceEventID returns the next free service event identifier.
func (s Snapshot) NextServiceEventID() int64 {
	var max int64
	for _, e := range s.ServiceEvents {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}

// NextIssueID returns the next free issue identifier.
func (s Snapshot) NextIssueID() int64 {
	var max int64
	for _, i := range s.Issues {
		if i.ID > max {
			max = i.ID
		}
	}
	return max + 1
}
