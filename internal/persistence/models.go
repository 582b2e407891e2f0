package persistence

import "time"

// Role classifies a member account for the external admin surface.
type Role string

const (
	RoleMember    Role = "member"
	RoleSuperuser Role = "superuser"
	RoleAdmin     Role = "admin"
)

// Category distinguishes productive machine time from planned downtime.
type Category string

const (
	CategoryUsage       Category = "usage"
	CategoryMaintenance Category = "maintenance"
)

// StatusConfirmed is the only reservation status the workbook records.
const StatusConfirmed = "confirmed"

// Member represents a workshop member account.
type Member struct {
	ID           int64
	Name         string
	Role         Role
	Email        string
	PasswordHash string
}

// Licence represents a named credential required to operate certain resources.
type Licence struct {
	ID   int64
	Name string
}

// Grant links a member to a licence over an inclusive validity interval.
type Grant struct {
	MemberID  int64
	LicenceID int64
	ValidFrom time.Time
	ValidTo   time.Time
}

// Resource represents a bookable machine.
type Resource struct {
	ID                    int64
	Name                  string
	SerialNo              string
	RequiredLicenceID     *int64
	MaxReservationMinutes int
	ServiceIntervalHours  float64
	LastServiceAt         *time.Time
}

// WeeklyHours holds one weekday's opening configuration. Weekday follows the
// workbook convention 0=Monday ... 6=Sunday. OpenTime and CloseTime carry the
// raw configured strings; they are canonicalized to "HH:MM" on save while the
// tolerant grammar is accepted on read.
type WeeklyHours struct {
	Weekday   int
	Open      bool
	OpenTime  string
	CloseTime string
}

// ClosedDate marks a whole calendar day as closed regardless of weekly hours.
type ClosedDate struct {
	Date   time.Time
	Reason string
}

// Reservation represents a committed booking of a half-open interval [Start, End).
type Reservation struct {
	ID         int64
	ResourceID int64
	MemberID   int64
	Start      time.Time
	End        time.Time
	Category   Category
	Status     string
	Notes      string
}

// ServiceEvent marks a completed maintenance action, resetting usage accrual.
type ServiceEvent struct {
	ID         int64
	ResourceID int64
	OccurredAt time.Time
	Notes      string
}

// IssueReport is a free-text fault report filed against a resource.
type IssueReport struct {
	ID         int64
	ResourceID int64
	MemberID   int64
	CreatedAt  time.Time
	Status     string
	Text       string
}
