package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/workshop-scheduler/internal/persistence"
)

var (
	memberCounter      uint64
	licenceCounter     uint64
	resourceCounter    uint64
	reservationCounter uint64
)

// referenceTime falls on a Monday so weekday-sensitive fixtures stay inside
// default opening hours.
var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Member fixtures ----------------------------

// MemberOption configures a generated member record.
type MemberOption func(*persistence.Member)

// NewMember returns a deterministic member record with optional overrides.
func NewMember(opts ...MemberOption) persistence.Member {
	idx := atomic.AddUint64(&memberCounter, 1)
	member := persistence.Member{
		ID:    int64(idx),
		Name:  fmt.Sprintf("Member %03d", idx),
		Role:  persistence.RoleMember,
		Email: fmt.Sprintf("member-%03d@example.com", idx),
	}
	for _, opt := range opts {
		opt(&member)
	}
	return member
}

// WithMemberID overrides the generated member id.
func WithMemberID(id int64) MemberOption {
	return func(m *persistence.Member) {
		m.ID = id
	}
}

// WithMemberRole sets the member's role.
func WithMemberRole(role persistence.Role) MemberOption {
	return func(m *persistence.Member) {
		m.Role = role
	}
}

// WithMemberEmail overrides the generated email address.
func WithMemberEmail(email string) MemberOption {
	return func(m *persistence.Member) {
		m.Email = email
	}
}

// WithMemberPasswordHash stores a precomputed sign-in hash.
func WithMemberPasswordHash(hash string) MemberOption {
	return func(m *persistence.Member) {
		m.PasswordHash = hash
	}
}

// --------------------------- Licence fixtures ----------------------------

// NewLicence returns a deterministic licence record.
func NewLicence(name string) persistence.Licence {
	idx := atomic.AddUint64(&licenceCounter, 1)
	if name == "" {
		name = fmt.Sprintf("Licence %03d", idx)
	}
	return persistence.Licence{ID: int64(idx), Name: name}
}

// NewGrant links a member to a licence over an inclusive day interval.
func NewGrant(memberID, licenceID int64, from, to time.Time) persistence.Grant {
	return persistence.Grant{
		MemberID:  memberID,
		LicenceID: licenceID,
		ValidFrom: from,
		ValidTo:   to,
	}
}

// --------------------------- Resource fixtures ---------------------------

// ResourceOption configures a generated resource record.
type ResourceOption func(*persistence.Resource)

// NewResource returns a deterministic resource record with optional overrides.
func NewResource(opts ...ResourceOption) persistence.Resource {
	idx := atomic.AddUint64(&resourceCounter, 1)
	resource := persistence.Resource{
		ID:                    int64(idx),
		Name:                  fmt.Sprintf("Machine %03d", idx),
		SerialNo:              fmt.Sprintf("SN-%03d", idx),
		MaxReservationMinutes: 240,
		ServiceIntervalHours:  100,
	}
	for _, opt := range opts {
		opt(&resource)
	}
	return resource
}

// WithResourceID overrides the generated resource id.
func WithResourceID(id int64) ResourceOption {
	return func(r *persistence.Resource) {
		r.ID = id
	}
}

// WithRequiredLicence gates the resource behind a licence.
func WithRequiredLicence(licenceID int64) ResourceOption {
	return func(r *persistence.Resource) {
		id := licenceID
		r.RequiredLicenceID = &id
	}
}

// WithMaxMinutes sets the longest reservation the resource accepts.
func WithMaxMinutes(minutes int) ResourceOption {
	return func(r *persistence.Resource) {
		r.MaxReservationMinutes = minutes
	}
}

// WithServiceInterval sets the usage hours between services.
func WithServiceInterval(hours float64) ResourceOption {
	return func(r *persistence.Resource) {
		r.ServiceIntervalHours = hours
	}
}

// WithLastServiceAt records the most recent completed service.
func WithLastServiceAt(t time.Time) ResourceOption {
	return func(r *persistence.Resource) {
		at := t
		r.LastServiceAt = &at
	}
}

// ------------------------- Reservation fixtures --------------------------

// ReservationOption configures a generated reservation record.
type ReservationOption func(*persistence.Reservation)

// NewReservation returns a deterministic confirmed usage reservation.
func NewReservation(resourceID, memberID int64, start, end time.Time, opts ...ReservationOption) persistence.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	reservation := persistence.Reservation{
		ID:         int64(idx),
		ResourceID: resourceID,
		MemberID:   memberID,
		Start:      start,
		End:        end,
		Category:   persistence.CategoryUsage,
		Status:     persistence.StatusConfirmed,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// WithReservationID overrides the generated reservation id.
func WithReservationID(id int64) ReservationOption {
	return func(r *persistence.Reservation) {
		r.ID = id
	}
}

// AsMaintenance marks the reservation as planned downtime.
func AsMaintenance() ReservationOption {
	return func(r *persistence.Reservation) {
		r.Category = persistence.CategoryMaintenance
	}
}

// ---------------------------- Snapshot builder ---------------------------

// DefaultWeeklyHours opens Monday through Saturday 09:00-17:00 and leaves
// Sunday closed, matching the usual club roster.
func DefaultWeeklyHours() []persistence.WeeklyHours {
	hours := make([]persistence.WeeklyHours, 0, 7)
	for weekday := 0; weekday < 7; weekday++ {
		row := persistence.WeeklyHours{Weekday: weekday}
		if weekday != 6 {
			row.Open = true
			row.OpenTime = "09:00"
			row.CloseTime = "17:00"
		}
		hours = append(hours, row)
	}
	return hours
}

// SnapshotOption mutates the snapshot being assembled.
type SnapshotOption func(*persistence.Snapshot)

// NewSnapshot assembles a snapshot with default weekly hours and the given
// overrides applied in order.
func NewSnapshot(opts ...SnapshotOption) persistence.Snapshot {
	snapshot := persistence.Snapshot{WeeklyHours: DefaultWeeklyHours()}
	for _, opt := range opts {
		opt(&snapshot)
	}
	return snapshot
}

// WithMembers appends member records to the snapshot.
func WithMembers(members ...persistence.Member) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.Members = append(s.Members, members...)
	}
}

// WithLicences appends licence records to the snapshot.
func WithLicences(licences ...persistence.Licence) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.Licences = append(s.Licences, licences...)
	}
}

// WithGrants appends grant rows to the snapshot.
func WithGrants(grants ...persistence.Grant) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.Grants = append(s.Grants, grants...)
	}
}

// WithResources appends resource records to the snapshot.
func WithResources(resources ...persistence.Resource) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.Resources = append(s.Resources, resources...)
	}
}

// WithReservations appends committed reservations to the snapshot.
func WithReservations(reservations ...persistence.Reservation) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.Reservations = append(s.Reservations, reservations...)
	}
}

// WithWeeklyHours replaces the default opening hours table.
func WithWeeklyHours(hours ...persistence.WeeklyHours) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.WeeklyHours = append([]persistence.WeeklyHours(nil), hours...)
	}
}

// WithClosedDates appends explicit closures to the snapshot.
func WithClosedDates(dates ...persistence.ClosedDate) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.ClosedDates = append(s.ClosedDates, dates...)
	}
}

// WithServiceEvents appends completed service records to the snapshot.
func WithServiceEvents(events ...persistence.ServiceEvent) SnapshotOption {
	return func(s *persistence.Snapshot) {
		s.ServiceEvents = append(s.ServiceEvents, events...)
	}
}
