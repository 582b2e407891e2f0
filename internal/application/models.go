package application

import (
	"time"

	"github.com/example/workshop-scheduler/internal/persistence"
)

// Principal represents the signed-in member invoking a service method.
// Authentication itself happens outside the engine; callers pass the
// resolved identity in.
type Principal struct {
	MemberID int64
	Role     persistence.Role
}

// IsAdmin reports whether the principal may perform administrative actions.
func (p Principal) IsAdmin() bool {
	return p.Role == persistence.RoleAdmin || p.Role == persistence.RoleSuperuser
}

// CreateReservationParams wraps the data required to book a resource.
type CreateReservationParams struct {
	Principal  Principal
	MemberID   int64
	ResourceID int64
	Start      time.Time
	End        time.Time
	Category   persistence.Category
	Notes      string
}

// RescheduleParams wraps the data required to move a committed reservation.
// The reservation keeps its identity; interval and resource may change.
type RescheduleParams struct {
	Principal     Principal
	ReservationID int64
	NewResourceID int64
	NewStart      time.Time
	NewEnd        time.Time
}

// MaintenanceBlockParams wraps the data required to insert a maintenance block.
type MaintenanceBlockParams struct {
	Principal  Principal
	ResourceID int64
	Start      time.Time
	End        time.Time
	Notes      string
}

// ServiceEventParams records a completed maintenance action.
type ServiceEventParams struct {
	Principal  Principal
	ResourceID int64
	OccurredAt time.Time
	Notes      string
}

// IssueParams wraps a member's fault report against a resource.
type IssueParams struct {
	Principal  Principal
	ResourceID int64
	Text       string
}

// RosterEntry pairs a resource with one of its reservations for day views
// spanning the whole facility.
type RosterEntry struct {
	Resource    persistence.Resource
	Reservation persistence.Reservation
}

// MemberInput captures caller provided member fields.
type MemberInput struct {
	Name  string
	Role  persistence.Role
	Email string
}

// GrantInput captures caller provided grant fields.
type GrantInput struct {
	MemberID  int64
	LicenceID int64
	ValidFrom time.Time
	ValidTo   time.Time
}

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Name                  string
	SerialNo              string
	RequiredLicenceID     *int64
	MaxReservationMinutes int
	ServiceIntervalHours  float64
}

// WeeklyHoursInput carries one weekday's hours as entered by an administrator.
type WeeklyHoursInput struct {
	Weekday   int
	Open      bool
	OpenTime  string
	CloseTime string
}

// ClosedDateInput captures an explicit closure of a calendar date.
type ClosedDateInput struct {
	Date   time.Time
	Reason string
}
