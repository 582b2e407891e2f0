package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/workshop-scheduler/internal/availability"
	"github.com/example/workshop-scheduler/internal/eligibility"
	"github.com/example/workshop-scheduler/internal/persistence"
	"github.com/example/workshop-scheduler/internal/scheduler"
)

// ReservationService is the authoritative ledger of committed reservations.
// Every create and reschedule runs the fixed validation order inside the
// affected resources' critical sections: existence, eligibility, duration,
// operating hours, conflicts. The first failing check is the reported error.
type ReservationService struct {
	state *State
	now   func() time.Time
	// maintenanceBypassesEligibility lets maintenance blocks skip the
	// licence check; usage reservations are always checked.
	maintenanceBypassesEligibility bool
	logger                         *slog.Logger
}

// NewReservationService constructs the ledger service over committed state.
func NewReservationService(state *State, now func() time.Time, maintenanceBypassesEligibility bool) *ReservationService {
	return NewReservationServiceWithLogger(state, now, maintenanceBypassesEligibility, nil)
}

// NewReservationServiceWithLogger constructs the ledger service with a specified logger.
func NewReservationServiceWithLogger(state *State, now func() time.Time, maintenanceBypassesEligibility bool, logger *slog.Logger) *ReservationService {
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		state:                          state,
		now:                            now,
		maintenanceBypassesEligibility: maintenanceBypassesEligibility,
		logger:                         defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Create validates and commits a new reservation. On success the reservation
// receives the next globally monotonic id and the full snapshot is persisted
// before the mutation becomes visible.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("ReservationService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.MemberID,
		"resource_id", params.ResourceID,
		"category", string(params.Category),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation committed")
	}()

	if params.MemberID == 0 {
		params.MemberID = params.Principal.MemberID
	}
	if params.MemberID != params.Principal.MemberID && !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if vErr := validateInterval(params.Start, params.End); vErr.HasErrors() {
		err = vErr
		return
	}
	params.Start = params.Start.UTC()
	params.End = params.End.UTC()
	category := params.Category
	if category == "" {
		category = persistence.CategoryUsage
	}

	release := s.state.LockResources(params.ResourceID)
	defer release()

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		if vErr := s.validateBooking(current, params.MemberID, params.ResourceID, params.Start, params.End, category, 0); vErr != nil {
			return persistence.Snapshot{}, vErr
		}
		next := current.Clone()
		reservation = persistence.Reservation{
			ID:         current.NextReservationID(),
			ResourceID: params.ResourceID,
			MemberID:   params.MemberID,
			Start:      params.Start,
			End:        params.End,
			Category:   category,
			Status:     persistence.StatusConfirmed,
			Notes:      params.Notes,
		}
		next.Reservations = append(next.Reservations, reservation)
		return next, nil
	})
	if err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// Reschedule atomically replaces a committed reservation's interval and
// resource, preserving its identity. Validation matches Create except the
// reservation's own prior interval never counts as a conflict. When the
// resource changes, both resources' critical sections are held together.
func (s *ReservationService) Reschedule(ctx context.Context, params RescheduleParams) (reservation persistence.Reservation, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("ReservationService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "Reschedule",
		"principal_id", params.Principal.MemberID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", reservation.ResourceID).InfoContext(ctx, "reservation rescheduled")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if vErr := validateInterval(params.NewStart, params.NewEnd); vErr.HasErrors() {
		err = vErr
		return
	}
	params.NewStart = params.NewStart.UTC()
	params.NewEnd = params.NewEnd.UTC()

	existing, ok := s.state.View().ReservationByID(params.ReservationID)
	if !ok {
		err = ErrNotFound
		return
	}

	release := s.state.LockResources(existing.ResourceID, params.NewResourceID)
	defer release()

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		prior, ok := current.ReservationByID(params.ReservationID)
		if !ok {
			return persistence.Snapshot{}, ErrNotFound
		}
		if vErr := s.validateBooking(current, prior.MemberID, params.NewResourceID, params.NewStart, params.NewEnd, prior.Category, prior.ID); vErr != nil {
			return persistence.Snapshot{}, vErr
		}
		next := current.Clone()
		for i := range next.Reservations {
			if next.Reservations[i].ID != prior.ID {
				continue
			}
			next.Reservations[i].ResourceID = params.NewResourceID
			next.Reservations[i].Start = params.NewStart
			next.Reservations[i].End = params.NewEnd
			reservation = next.Reservations[i]
			break
		}
		return next, nil
	})
	if err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// validateBooking runs the ledger's fixed validation order against the
// current committed snapshot. excludeID removes the reservation's own prior
// interval from the conflict comparison during a reschedule.
func (s *ReservationService) validateBooking(current persistence.Snapshot, memberID, resourceID int64, start, end time.Time, category persistence.Category, excludeID int64) error {
	resource, ok := current.ResourceByID(resourceID)
	if !ok {
		return ErrNotFound
	}
	if _, ok := current.MemberByID(memberID); !ok {
		return ErrNotFound
	}

	checkEligibility := category == persistence.CategoryUsage ||
		(category == persistence.CategoryMaintenance && !s.maintenanceBypassesEligibility)
	if checkEligibility && !eligibility.CanUse(resource, current.Grants, memberID, start) {
		return ErrEligibilityDenied
	}

	if end.Sub(start) > time.Duration(resource.MaxReservationMinutes)*time.Minute {
		return ErrDurationExceeded
	}

	cal := calendarFrom(current)
	if open, reason := cal.IsOpen(start); !open {
		if reason == availability.ReasonClosedDate {
			return ErrClosedDate
		}
		return ErrOutsideOperatingHours
	}
	if !cal.WithinHours(start, availability.At(start), availability.At(end)) {
		return ErrOutsideOperatingHours
	}

	existing := sameDayIntervals(current.Reservations, resourceID, start, excludeID)
	if scheduler.Overlaps(existing, start, end) {
		return ErrOverlap
	}
	return nil
}

// DayView returns the resource's committed reservations on the date, ordered
// by start time ascending.
func (s *ReservationService) DayView(ctx context.Context, resourceID int64, date time.Time) ([]persistence.Reservation, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("ReservationService is not configured")
	}
	current := s.state.View()
	if _, ok := current.ResourceByID(resourceID); !ok {
		return nil, ErrNotFound
	}
	out := reservationsOn(current.Reservations, resourceID, date)
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// WeekView returns the resource's reservations for the Monday-start week
// containing the date, ordered by start time ascending.
func (s *ReservationService) WeekView(ctx context.Context, resourceID int64, date time.Time) ([]persistence.Reservation, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("ReservationService is not configured")
	}
	monday := date.AddDate(0, 0, -availability.Weekday(date))
	var out []persistence.Reservation
	for d := 0; d < 7; d++ {
		day, err := s.DayView(ctx, resourceID, monday.AddDate(0, 0, d))
		if err != nil {
			return nil, err
		}
		out = append(out, day...)
	}
	return out, nil
}

// DayRoster returns every resource's reservations for the date, ordered by
// resource id then start time.
func (s *ReservationService) DayRoster(ctx context.Context, date time.Time) ([]RosterEntry, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("ReservationService is not configured")
	}
	current := s.state.View()
	resources := append([]persistence.Resource(nil), current.Resources...)
	sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })

	var entries []RosterEntry
	for _, resource := range resources {
		day := reservationsOn(current.Reservations, resource.ID, date)
		sort.Slice(day, func(i, j int) bool { return day[i].Start.Before(day[j].Start) })
		for _, reservation := range day {
			entries = append(entries, RosterEntry{Resource: resource, Reservation: reservation})
		}
	}
	return entries, nil
}

// EligibleResources returns the resources the member may book at the
// reference instant, ordered by id. An unknown member gets only the
// resources that require no licence, matching the empty-eligibility rule.
func (s *ReservationService) EligibleResources(ctx context.Context, memberID int64, asOf time.Time) ([]persistence.Resource, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("ReservationService is not configured")
	}
	current := s.state.View()
	eligible := eligibility.EligibleResources(current.Resources, current.Grants, memberID, asOf)
	out := make([]persistence.Resource, 0, len(eligible))
	for _, resource := range current.Resources {
		if _, ok := eligible[resource.ID]; ok {
			out = append(out, resource)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Slots returns the bookable start-of-slot times for the resource's facility
// on the date, stepMinutes apart. A closed day yields no slots.
func (s *ReservationService) Slots(ctx context.Context, resourceID int64, date time.Time, stepMinutes int) ([]availability.TimeOfDay, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("ReservationService is not configured")
	}
	current := s.state.View()
	if _, ok := current.ResourceByID(resourceID); !ok {
		return nil, ErrNotFound
	}
	return calendarFrom(current).TimeSlots(date, stepMinutes), nil
}

func validateInterval(start, end time.Time) *ValidationError {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		vErr.add("time", "start must be before end")
	}
	return vErr
}

func calendarFrom(snapshot persistence.Snapshot) *availability.Calendar {
	hours := make(map[int]availability.DayHours, len(snapshot.WeeklyHours))
	for _, row := range snapshot.WeeklyHours {
		hours[row.Weekday] = availability.DayHours{
			Open:      row.Open,
			OpenTime:  row.OpenTime,
			CloseTime: row.CloseTime,
		}
	}
	closed := make(map[time.Time]string, len(snapshot.ClosedDates))
	for _, row := range snapshot.ClosedDates {
		closed[row.Date] = row.Reason
	}
	return availability.NewCalendar(hours, closed)
}

func reservationsOn(reservations []persistence.Reservation, resourceID int64, date time.Time) []persistence.Reservation {
	var out []persistence.Reservation
	for _, r := range reservations {
		if r.ResourceID != resourceID {
			continue
		}
		if !sameDate(r.Start, date) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sameDayIntervals narrows the committed set to the candidate's resource and
// calendar day; reservations never span a day boundary.
func sameDayIntervals(reservations []persistence.Reservation, resourceID int64, date time.Time, excludeID int64) []scheduler.Interval {
	var out []scheduler.Interval
	for _, r := range reservations {
		if r.ResourceID != resourceID || r.ID == excludeID {
			continue
		}
		if !sameDate(r.Start, date) {
			continue
		}
		out = append(out, scheduler.Interval{
			ReservationID: r.ID,
			ResourceID:    r.ResourceID,
			Start:         r.Start,
			End:           r.End,
		})
	}
	return out
}

// sameDate compares calendar days in UTC. Committed reservations are
// normalized to UTC on entry, so a mixed-offset input cannot land on a
// different day than the instants it overlaps.
func sameDate(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
