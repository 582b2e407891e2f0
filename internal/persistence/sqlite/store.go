// Package sqlite persists the full application snapshot in a SQLite
// database. Saves rewrite every table inside one transaction so a snapshot
// is either stored completely or not at all.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/workshop-scheduler/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
	id            INTEGER PRIMARY KEY,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS licences (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS grants (
	member_id  INTEGER NOT NULL,
	licence_id INTEGER NOT NULL,
	valid_from TEXT NOT NULL,
	valid_to   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS resources (
	id                      INTEGER PRIMARY KEY,
	name                    TEXT NOT NULL,
	serial_no               TEXT NOT NULL,
	required_licence_id     INTEGER,
	max_reservation_minutes INTEGER NOT NULL,
	service_interval_hours  REAL NOT NULL,
	last_service_at         TEXT
);

CREATE TABLE IF NOT EXISTS weekly_hours (
	weekday    INTEGER PRIMARY KEY,
	open       INTEGER NOT NULL,
	open_time  TEXT NOT NULL,
	close_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS closed_dates (
	date   TEXT PRIMARY KEY,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reservations (
	id          INTEGER PRIMARY KEY,
	resource_id INTEGER NOT NULL,
	member_id   INTEGER NOT NULL,
	start_at    TEXT NOT NULL,
	end_at      TEXT NOT NULL,
	category    TEXT NOT NULL,
	status      TEXT NOT NULL,
	notes       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS service_events (
	id          INTEGER PRIMARY KEY,
	resource_id INTEGER NOT NULL,
	occurred_at TEXT NOT NULL,
	notes       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS issue_reports (
	id          INTEGER PRIMARY KEY,
	resource_id INTEGER NOT NULL,
	member_id   INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	status      TEXT NOT NULL,
	text        TEXT NOT NULL
);
`

// Store implements persistence.SnapshotStore on a SQLite database.
type Store struct {
	pool *ConnectionPool
}

// Open opens the database at dsn and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.DB().Exec(schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", mapError(err))
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping tests the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// LoadSnapshot reads every table within one read-only transaction.
func (s *Store) LoadSnapshot(ctx context.Context) (persistence.Snapshot, error) {
	var snapshot persistence.Snapshot
	err := s.pool.WithReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		if snapshot.Members, err = loadMembers(tx); err != nil {
			return err
		}
		if snapshot.Licences, err = loadLicences(tx); err != nil {
			return err
		}
		if snapshot.Grants, err = loadGrants(tx); err != nil {
			return err
		}
		if snapshot.Resources, err = loadResources(tx); err != nil {
			return err
		}
		if snapshot.WeeklyHours, err = loadWeeklyHours(tx); err != nil {
			return err
		}
		if snapshot.ClosedDates, err = loadClosedDates(tx); err != nil {
			return err
		}
		if snapshot.Reservations, err = loadReservations(tx); err != nil {
			return err
		}
		if snapshot.ServiceEvents, err = loadServiceEvents(tx); err != nil {
			return err
		}
		if snapshot.Issues, err = loadIssues(tx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return persistence.Snapshot{}, mapError(err)
	}
	return snapshot, nil
}

// SaveSnapshot rewrites every table from the snapshot in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot persistence.Snapshot) error {
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{
			"members", "licences", "grants", "resources", "weekly_hours",
			"closed_dates", "reservations", "service_events", "issue_reports",
		} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, m := range snapshot.Members {
			if _, err := tx.Exec(
				`INSERT INTO members (id, name, role, email, password_hash) VALUES (?, ?, ?, ?, ?)`,
				m.ID, m.Name, string(m.Role), m.Email, m.PasswordHash,
			); err != nil {
				return fmt.Errorf("failed to insert member %d: %w", m.ID, err)
			}
		}
		for _, l := range snapshot.Licences {
			if _, err := tx.Exec(
				`INSERT INTO licences (id, name) VALUES (?, ?)`,
				l.ID, l.Name,
			); err != nil {
				return fmt.Errorf("failed to insert licence %d: %w", l.ID, err)
			}
		}
		for _, g := range snapshot.Grants {
			if _, err := tx.Exec(
				`INSERT INTO grants (member_id, licence_id, valid_from, valid_to) VALUES (?, ?, ?, ?)`,
				g.MemberID, g.LicenceID, formatTime(g.ValidFrom), formatTime(g.ValidTo),
			); err != nil {
				return fmt.Errorf("failed to insert grant for member %d: %w", g.MemberID, err)
			}
		}
		for _, r := range snapshot.Resources {
			if _, err := tx.Exec(
				`INSERT INTO resources (id, name, serial_no, required_licence_id, max_reservation_minutes, service_interval_hours, last_service_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.Name, r.SerialNo, nullableID(r.RequiredLicenceID),
				r.MaxReservationMinutes, r.ServiceIntervalHours, nullableTime(r.LastServiceAt),
			); err != nil {
				return fmt.Errorf("failed to insert resource %d: %w", r.ID, err)
			}
		}
		for _, wh := range snapshot.WeeklyHours {
			open := 0
			if wh.Open {
				open = 1
			}
			if _, err := tx.Exec(
				`INSERT INTO weekly_hours (weekday, open, open_time, close_time) VALUES (?, ?, ?, ?)`,
				wh.Weekday, open, wh.OpenTime, wh.CloseTime,
			); err != nil {
				return fmt.Errorf("failed to insert weekly hours for weekday %d: %w", wh.Weekday, err)
			}
		}
		for _, cd := range snapshot.ClosedDates {
			if _, err := tx.Exec(
				`INSERT INTO closed_dates (date, reason) VALUES (?, ?)`,
				formatDate(cd.Date), cd.Reason,
			); err != nil {
				return fmt.Errorf("failed to insert closed date %s: %w", formatDate(cd.Date), err)
			}
		}
		for _, r := range snapshot.Reservations {
			if _, err := tx.Exec(
				`INSERT INTO reservations (id, resource_id, member_id, start_at, end_at, category, status, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.ResourceID, r.MemberID, formatTime(r.Start), formatTime(r.End),
				string(r.Category), r.Status, r.Notes,
			); err != nil {
				return fmt.Errorf("failed to insert reservation %d: %w", r.ID, err)
			}
		}
		for _, ev := range snapshot.ServiceEvents {
			if _, err := tx.Exec(
				`INSERT INTO service_events (id, resource_id, occurred_at, notes) VALUES (?, ?, ?, ?)`,
				ev.ID, ev.ResourceID, formatTime(ev.OccurredAt), ev.Notes,
			); err != nil {
				return fmt.Errorf("failed to insert service event %d: %w", ev.ID, err)
			}
		}
		for _, issue := range snapshot.Issues {
			if _, err := tx.Exec(
				`INSERT INTO issue_reports (id, resource_id, member_id, created_at, status, text)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				issue.ID, issue.ResourceID, issue.MemberID,
				formatTime(issue.CreatedAt), issue.Status, issue.Text,
			); err != nil {
				return fmt.Errorf("failed to insert issue report %d: %w", issue.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrSaveFailed, mapError(err))
	}
	return nil
}

func loadMembers(tx *sql.Tx) ([]persistence.Member, error) {
	rows, err := tx.Query(`SELECT id, name, role, email, password_hash FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []persistence.Member
	for rows.Next() {
		var m persistence.Member
		var role string
		if err := rows.Scan(&m.ID, &m.Name, &role, &m.Email, &m.PasswordHash); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = persistence.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func loadLicences(tx *sql.Tx) ([]persistence.Licence, error) {
	rows, err := tx.Query(`SELECT id, name FROM licences ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query licences: %w", err)
	}
	defer rows.Close()

	var licences []persistence.Licence
	for rows.Next() {
		var l persistence.Licence
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan licence: %w", err)
		}
		licences = append(licences, l)
	}
	return licences, rows.Err()
}

func loadGrants(tx *sql.Tx) ([]persistence.Grant, error) {
	rows, err := tx.Query(`SELECT member_id, licence_id, valid_from, valid_to FROM grants ORDER BY member_id, licence_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var grants []persistence.Grant
	for rows.Next() {
		var g persistence.Grant
		var validFrom, validTo string
		if err := rows.Scan(&g.MemberID, &g.LicenceID, &validFrom, &validTo); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		if g.ValidFrom, err = parseTime(validFrom); err != nil {
			return nil, err
		}
		if g.ValidTo, err = parseTime(validTo); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func loadResources(tx *sql.Tx) ([]persistence.Resource, error) {
	rows, err := tx.Query(`SELECT id, name, serial_no, required_licence_id, max_reservation_minutes, service_interval_hours, last_service_at FROM resources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		var r persistence.Resource
		var licenceID sql.NullInt64
		var lastService sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.SerialNo, &licenceID,
			&r.MaxReservationMinutes, &r.ServiceIntervalHours, &lastService); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		if licenceID.Valid {
			id := licenceID.Int64
			r.RequiredLicenceID = &id
		}
		if lastService.Valid {
			at, err := parseTime(lastService.String)
			if err != nil {
				return nil, err
			}
			r.LastServiceAt = &at
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func loadWeeklyHours(tx *sql.Tx) ([]persistence.WeeklyHours, error) {
	rows, err := tx.Query(`SELECT weekday, open, open_time, close_time FROM weekly_hours ORDER BY weekday`)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly hours: %w", err)
	}
	defer rows.Close()

	var hours []persistence.WeeklyHours
	for rows.Next() {
		var wh persistence.WeeklyHours
		var open int
		if err := rows.Scan(&wh.Weekday, &open, &wh.OpenTime, &wh.CloseTime); err != nil {
			return nil, fmt.Errorf("failed to scan weekly hours: %w", err)
		}
		wh.Open = open != 0
		hours = append(hours, wh)
	}
	return hours, rows.Err()
}

func loadClosedDates(tx *sql.Tx) ([]persistence.ClosedDate, error) {
	rows, err := tx.Query(`SELECT date, reason FROM closed_dates ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed dates: %w", err)
	}
	defer rows.Close()

	var dates []persistence.ClosedDate
	for rows.Next() {
		var cd persistence.ClosedDate
		var date string
		if err := rows.Scan(&date, &cd.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan closed date: %w", err)
		}
		if cd.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		dates = append(dates, cd)
	}
	return dates, rows.Err()
}

func loadReservations(tx *sql.Tx) ([]persistence.Reservation, error) {
	rows, err := tx.Query(`SELECT id, resource_id, member_id, start_at, end_at, category, status, notes FROM reservations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		var r persistence.Reservation
		var start, end, category string
		if err := rows.Scan(&r.ID, &r.ResourceID, &r.MemberID, &start, &end,
			&category, &r.Status, &r.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		if r.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if r.End, err = parseTime(end); err != nil {
			return nil, err
		}
		r.Category = persistence.Category(category)
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func loadServiceEvents(tx *sql.Tx) ([]persistence.ServiceEvent, error) {
	rows, err := tx.Query(`SELECT id, resource_id, occurred_at, notes FROM service_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query service events: %w", err)
	}
	defer rows.Close()

	var events []persistence.ServiceEvent
	for rows.Next() {
		var ev persistence.ServiceEvent
		var occurredAt string
		if err := rows.Scan(&ev.ID, &ev.ResourceID, &occurredAt, &ev.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan service event: %w", err)
		}
		if ev.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func loadIssues(tx *sql.Tx) ([]persistence.IssueReport, error) {
	rows, err := tx.Query(`SELECT id, resource_id, member_id, created_at, status, text FROM issue_reports ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue reports: %w", err)
	}
	defer rows.Close()

	var issues []persistence.IssueReport
	for rows.Next() {
		var issue persistence.IssueReport
		var createdAt string
		if err := rows.Scan(&issue.ID, &issue.ResourceID, &issue.MemberID,
			&createdAt, &issue.Status, &issue.Text); err != nil {
			return nil, fmt.Errorf("failed to scan issue report: %w", err)
		}
		if issue.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}
