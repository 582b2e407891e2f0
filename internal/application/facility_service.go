package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/workshop-scheduler/internal/availability"
	"github.com/example/workshop-scheduler/internal/persistence"
)

// FacilityService manages the resource catalog, weekly operating hours, and
// closed dates. Hours are canonicalized to "HH:MM" on save; a day whose
// configured times do not parse is stored closed so a broken entry can never
// open an unintended booking window.
type FacilityService struct {
	state  *State
	now    func() time.Time
	logger *slog.Logger
}

// NewFacilityService constructs a facility service over the shared state.
func NewFacilityService(state *State, now func() time.Time) *FacilityService {
	return NewFacilityServiceWithLogger(state, now, nil)
}

// NewFacilityServiceWithLogger constructs a facility service with a specified logger.
func NewFacilityServiceWithLogger(state *State, now func() time.Time, logger *slog.Logger) *FacilityService {
	if now == nil {
		now = time.Now
	}
	return &FacilityService{state: state, now: now, logger: defaultLogger(logger)}
}

func (s *FacilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FacilityService", operation, attrs...)
}

// CreateResource adds a machine to the catalog.
func (s *FacilityService) CreateResource(ctx context.Context, principal Principal, input ResourceInput) (resource persistence.Resource, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("FacilityService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource", "principal_id", principal.MemberID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if vErr := validateResourceInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		if input.RequiredLicenceID != nil {
			if _, ok := current.LicenceByID(*input.RequiredLicenceID); !ok {
				return persistence.Snapshot{}, ErrNotFound
			}
		}
		next := current.Clone()
		resource = persistence.Resource{
			ID:                    current.NextResourceID(),
			Name:                  strings.TrimSpace(input.Name),
			SerialNo:              strings.TrimSpace(input.SerialNo),
			RequiredLicenceID:     input.RequiredLicenceID,
			MaxReservationMinutes: input.MaxReservationMinutes,
			ServiceIntervalHours:  input.ServiceIntervalHours,
		}
		next.Resources = append(next.Resources, resource)
		return next, nil
	})
	if err != nil {
		resource = persistence.Resource{}
		return
	}
	return
}

// UpdateResource edits catalog fields on an existing machine. The last
// service timestamp is owned by the maintenance service and is not touched.
func (s *FacilityService) UpdateResource(ctx context.Context, principal Principal, resourceID int64, input ResourceInput) (resource persistence.Resource, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("FacilityService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", principal.MemberID,
		"resource_id", resourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource updated")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if vErr := validateResourceInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		if input.RequiredLicenceID != nil {
			if _, ok := current.LicenceByID(*input.RequiredLicenceID); !ok {
				return persistence.Snapshot{}, ErrNotFound
			}
		}
		next := current.Clone()
		for i := range next.Resources {
			if next.Resources[i].ID != resourceID {
				continue
			}
			next.Resources[i].Name = strings.TrimSpace(input.Name)
			next.Resources[i].SerialNo = strings.TrimSpace(input.SerialNo)
			next.Resources[i].RequiredLicenceID = input.RequiredLicenceID
			next.Resources[i].MaxReservationMinutes = input.MaxReservationMinutes
			next.Resources[i].ServiceIntervalHours = input.ServiceIntervalHours
			resource = next.Resources[i]
			return next, nil
		}
		return persistence.Snapshot{}, ErrNotFound
	})
	if err != nil {
		resource = persistence.Resource{}
		return
	}
	return
}

// ListResources returns the machine catalog ordered by id.
func (s *FacilityService) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("FacilityService is not configured")
	}
	out := append([]persistence.Resource(nil), s.state.View().Resources...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetWeeklyHours replaces the full weekly hours table. Each open day's times
// are canonicalized; an open day whose times fail to parse is saved closed.
func (s *FacilityService) SetWeeklyHours(ctx context.Context, principal Principal, inputs []WeeklyHoursInput) error {
	if s == nil || s.state == nil {
		return fmt.Errorf("FacilityService is not configured")
	}

	logger := s.loggerWith(ctx, "SetWeeklyHours", "principal_id", principal.MemberID)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	vErr := &ValidationError{}
	for _, input := range inputs {
		if input.Weekday < 0 || input.Weekday > 6 {
			vErr.add("weekday", "weekday must be between 0 (Monday) and 6 (Sunday)")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}

	rows := make([]persistence.WeeklyHours, 0, len(inputs))
	for _, input := range inputs {
		row := persistence.WeeklyHours{Weekday: input.Weekday}
		if input.Open {
			open := availability.Canonicalize(input.OpenTime)
			closeAt := availability.Canonicalize(input.CloseTime)
			if open != "" && closeAt != "" {
				row.Open = true
				row.OpenTime = open
				row.CloseTime = closeAt
			}
		}
		rows = append(rows, row)
	}

	err := s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		next := current.Clone()
		next.WeeklyHours = rows
		return next, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to set weekly hours", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "weekly hours saved")
	return nil
}

// AddClosedDate registers an explicit closure for a calendar date.
func (s *FacilityService) AddClosedDate(ctx context.Context, principal Principal, input ClosedDateInput) error {
	if s == nil || s.state == nil {
		return fmt.Errorf("FacilityService is not configured")
	}

	logger := s.loggerWith(ctx, "AddClosedDate", "principal_id", principal.MemberID)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if input.Date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		return vErr
	}

	err := s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		next := current.Clone()
		next.ClosedDates = append(next.ClosedDates, persistence.ClosedDate{
			Date:   truncateToDate(input.Date),
			Reason: strings.TrimSpace(input.Reason),
		})
		return next, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to add closed date", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "closed date added")
	return nil
}

// RemoveClosedDate deletes an explicit closure.
func (s *FacilityService) RemoveClosedDate(ctx context.Context, principal Principal, date time.Time) error {
	if s == nil || s.state == nil {
		return fmt.Errorf("FacilityService is not configured")
	}

	logger := s.loggerWith(ctx, "RemoveClosedDate", "principal_id", principal.MemberID)

	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	target := truncateToDate(date)
	err := s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		next := current.Clone()
		kept := next.ClosedDates[:0]
		removed := false
		for _, cd := range next.ClosedDates {
			if !removed && sameDate(cd.Date, target) {
				removed = true
				continue
			}
			kept = append(kept, cd)
		}
		if !removed {
			return persistence.Snapshot{}, ErrNotFound
		}
		next.ClosedDates = kept
		return next, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove closed date", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "closed date removed")
	return nil
}

func validateResourceInput(input ResourceInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.MaxReservationMinutes <= 0 {
		vErr.add("max_reservation_minutes", "maximum duration must be positive")
	}
	if input.ServiceIntervalHours < 0 {
		vErr.add("service_interval_hours", "service interval must not be negative")
	}
	return vErr
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
