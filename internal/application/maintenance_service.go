package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/workshop-scheduler/internal/persistence"
	"github.com/example/workshop-scheduler/internal/usage"
)

// MaintenanceService layers maintenance scheduling, service-event recording,
// and usage-derived due signals over the reservation ledger. Scheduling a
// block never implies a service event; the reset of the accrual window is an
// explicit, separate action.
type MaintenanceService struct {
	state        *State
	reservations *ReservationService
	now          func() time.Time
	due          *dueCache
	logger       *slog.Logger
}

// NewMaintenanceService constructs a maintenance service over the shared state.
func NewMaintenanceService(state *State, reservations *ReservationService, now func() time.Time) *MaintenanceService {
	return NewMaintenanceServiceWithLogger(state, reservations, now, nil)
}

// NewMaintenanceServiceWithLogger constructs a maintenance service with a specified logger.
func NewMaintenanceServiceWithLogger(state *State, reservations *ReservationService, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		state:        state,
		reservations: reservations,
		now:          now,
		due:          newDueCache(0, 0, now),
		logger:       defaultLogger(logger),
	}
}

func (s *MaintenanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MaintenanceService", operation, attrs...)
}

// ScheduleBlock inserts a maintenance-category reservation through the ledger.
// Duration, hours, and conflict checks always apply; the eligibility check
// follows the ledger's configured bypass policy.
func (s *MaintenanceService) ScheduleBlock(ctx context.Context, params MaintenanceBlockParams) (persistence.Reservation, error) {
	if s == nil || s.reservations == nil {
		return persistence.Reservation{}, fmt.Errorf("MaintenanceService is not configured")
	}

	logger := s.loggerWith(ctx, "ScheduleBlock",
		"principal_id", params.Principal.MemberID,
		"resource_id", params.ResourceID,
	)

	if !params.Principal.IsAdmin() {
		logger.ErrorContext(ctx, "maintenance block rejected", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return persistence.Reservation{}, ErrUnauthorized
	}

	// The ledger logs the outcome of the create itself.
	return s.reservations.Create(ctx, CreateReservationParams{
		Principal:  params.Principal,
		MemberID:   params.Principal.MemberID,
		ResourceID: params.ResourceID,
		Start:      params.Start,
		End:        params.End,
		Category:   persistence.CategoryMaintenance,
		Notes:      params.Notes,
	})
}

// RecordServiceEvent logs a completed maintenance action and resets the
// resource's accrual window to the event instant.
func (s *MaintenanceService) RecordServiceEvent(ctx context.Context, params ServiceEventParams) (event persistence.ServiceEvent, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("MaintenanceService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "RecordServiceEvent",
		"principal_id", params.Principal.MemberID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record service event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("service_event_id", event.ID).InfoContext(ctx, "service event recorded")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	occurredAt := params.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	occurredAt = occurredAt.UTC()

	release := s.state.LockResources(params.ResourceID)
	defer release()

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		if _, ok := current.ResourceByID(params.ResourceID); !ok {
			return persistence.Snapshot{}, ErrNotFound
		}
		next := current.Clone()
		event = persistence.ServiceEvent{
			ID:         current.NextServiceEventID(),
			ResourceID: params.ResourceID,
			OccurredAt: occurredAt,
			Notes:      strings.TrimSpace(params.Notes),
		}
		next.ServiceEvents = append(next.ServiceEvents, event)
		for i := range next.Resources {
			if next.Resources[i].ID == params.ResourceID {
				at := occurredAt
				next.Resources[i].LastServiceAt = &at
				break
			}
		}
		return next, nil
	})
	if err != nil {
		event = persistence.ServiceEvent{}
		return
	}
	return
}

// AccruedHours returns the usage hours consumed by the resource since its
// last recorded service event, or over all history when none exists.
func (s *MaintenanceService) AccruedHours(ctx context.Context, resourceID int64) (float64, error) {
	if s == nil || s.state == nil {
		return 0, fmt.Errorf("MaintenanceService is not configured")
	}
	current := s.state.View()
	resource, ok := current.ResourceByID(resourceID)
	if !ok {
		return 0, ErrNotFound
	}
	return usage.AccruedHours(current.Reservations, resource.ID, resource.LastServiceAt), nil
}

// HoursUntilService returns the remaining usage hours before the resource is
// due; negative values signal overdue service.
func (s *MaintenanceService) HoursUntilService(ctx context.Context, resourceID int64) (float64, error) {
	if s == nil || s.state == nil {
		return 0, fmt.Errorf("MaintenanceService is not configured")
	}
	key := dueCacheKey(resourceID, s.state.Generation())
	if hours, ok := s.due.Get(key); ok {
		return hours, nil
	}
	current := s.state.View()
	resource, ok := current.ResourceByID(resourceID)
	if !ok {
		return 0, ErrNotFound
	}
	hours := usage.HoursUntilService(resource, current.Reservations)
	s.due.Store(key, hours)
	return hours, nil
}

// ReportIssue files a free-text fault report against a resource.
func (s *MaintenanceService) ReportIssue(ctx context.Context, params IssueParams) (issue persistence.IssueReport, err error) {
	if s == nil || s.state == nil {
		err = fmt.Errorf("MaintenanceService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "ReportIssue",
		"principal_id", params.Principal.MemberID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to report issue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("issue_id", issue.ID).InfoContext(ctx, "issue reported")
	}()

	text := strings.TrimSpace(params.Text)
	if text == "" {
		vErr := &ValidationError{}
		vErr.add("text", "issue text is required")
		err = vErr
		return
	}

	err = s.state.Update(ctx, func(current persistence.Snapshot) (persistence.Snapshot, error) {
		if _, ok := current.ResourceByID(params.ResourceID); !ok {
			return persistence.Snapshot{}, ErrNotFound
		}
		if _, ok := current.MemberByID(params.Principal.MemberID); !ok {
			return persistence.Snapshot{}, ErrNotFound
		}
		next := current.Clone()
		issue = persistence.IssueReport{
			ID:         current.NextIssueID(),
			ResourceID: params.ResourceID,
			MemberID:   params.Principal.MemberID,
			CreatedAt:  s.now(),
			Status:     "open",
			Text:       text,
		}
		next.Issues = append(next.Issues, issue)
		return next, nil
	})
	if err != nil {
		issue = persistence.IssueReport{}
		return
	}
	return
}

// ListIssues returns the resource's issues newest first. A zero resourceID
// lists every issue.
func (s *MaintenanceService) ListIssues(ctx context.Context, resourceID int64) ([]persistence.IssueReport, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("MaintenanceService is not configured")
	}
	current := s.state.View()
	if resourceID != 0 {
		if _, ok := current.ResourceByID(resourceID); !ok {
			return nil, ErrNotFound
		}
	}
	var out []persistence.IssueReport
	for _, issue := range current.Issues {
		if resourceID != 0 && issue.ResourceID != resourceID {
			continue
		}
		out = append(out, issue)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
