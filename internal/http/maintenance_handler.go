package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/workshop-scheduler/internal/application"
	"github.com/example/workshop-scheduler/internal/persistence"
)

type maintenanceService interface {
	ScheduleBlock(ctx context.Context, params application.MaintenanceBlockParams) (persistence.Reservation, error)
	RecordServiceEvent(ctx context.Context, params application.ServiceEventParams) (persistence.ServiceEvent, error)
	AccruedHours(ctx context.Context, resourceID int64) (float64, error)
	HoursUntilService(ctx context.Context, resourceID int64) (float64, error)
	ReportIssue(ctx context.Context, params application.IssueParams) (persistence.IssueReport, error)
	ListIssues(ctx context.Context, resourceID int64) ([]persistence.IssueReport, error)
}

type MaintenanceHandler struct {
	service   maintenanceService
	responder responder
}

func NewMaintenanceHandler(service maintenanceService, logger *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{service: service, responder: newResponder(logger)}
}

func (h *MaintenanceHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req maintenanceBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.ScheduleBlock(r.Context(), application.MaintenanceBlockParams{
		Principal:  principal,
		ResourceID: req.ResourceID,
		Start:      parseTimestamp(req.Start),
		End:        parseTimestamp(req.End),
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *MaintenanceHandler) RecordService(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req serviceEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	event, err := h.service.RecordServiceEvent(r.Context(), application.ServiceEventParams{
		Principal:  principal,
		ResourceID: req.ResourceID,
		OccurredAt: parseTimestamp(req.OccurredAt),
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, serviceEventResponse{Event: toServiceEventDTO(event)})
}

// Status reports accrued usage hours and the remaining margin before the
// next service is due.
func (h *MaintenanceHandler) Status(w http.ResponseWriter, r *http.Request, resourceID int64) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	accrued, err := h.service.AccruedHours(r.Context(), resourceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	remaining, err := h.service.HoursUntilService(r.Context(), resourceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, maintenanceStatusResponse{
		ResourceID:        resourceID,
		AccruedHours:      accrued,
		HoursUntilService: remaining,
		ServiceDue:        remaining <= 0,
	})
}

func (h *MaintenanceHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	issue, err := h.service.ReportIssue(r.Context(), application.IssueParams{
		Principal:  principal,
		ResourceID: req.ResourceID,
		Text:       req.Text,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, issueResponse{Issue: toIssueDTO(issue)})
}

func (h *MaintenanceHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var resourceID int64
	if value := strings.TrimSpace(r.URL.Query().Get("resource_id")); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
			return
		}
		resourceID = id
	}

	issues, err := h.service.ListIssues(r.Context(), resourceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]issueDTO, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toIssueDTO(issue))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listIssuesResponse{Issues: out})
}

type maintenanceBlockRequest struct {
	ResourceID int64  `json:"resource_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Notes      string `json:"notes"`
}

type serviceEventRequest struct {
	ResourceID int64  `json:"resource_id"`
	OccurredAt string `json:"occurred_at"`
	Notes      string `json:"notes"`
}

type serviceEventResponse struct {
	Event serviceEventDTO `json:"event"`
}

type serviceEventDTO struct {
	ID         int64  `json:"id"`
	ResourceID int64  `json:"resource_id"`
	OccurredAt string `json:"occurred_at"`
	Notes      string `json:"notes,omitempty"`
}

func toServiceEventDTO(event persistence.ServiceEvent) serviceEventDTO {
	return serviceEventDTO{
		ID:         event.ID,
		ResourceID: event.ResourceID,
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
		Notes:      event.Notes,
	}
}

type maintenanceStatusResponse struct {
	ResourceID        int64   `json:"resource_id"`
	AccruedHours      float64 `json:"accrued_hours"`
	HoursUntilService float64 `json:"hours_until_service"`
	ServiceDue        bool    `json:"service_due"`
}

type issueRequest struct {
	ResourceID int64  `json:"resource_id"`
	Text       string `json:"text"`
}

type issueResponse struct {
	Issue issueDTO `json:"issue"`
}

type listIssuesResponse struct {
	Issues []issueDTO `json:"issues"`
}

type issueDTO struct {
	ID         int64  `json:"id"`
	ResourceID int64  `json:"resource_id"`
	MemberID   int64  `json:"member_id"`
	CreatedAt  string `json:"created_at"`
	Status     string `json:"status"`
	Text       string `json:"text"`
}

func toIssueDTO(issue persistence.IssueReport) issueDTO {
	return issueDTO{
		ID:         issue.ID,
		ResourceID: issue.ResourceID,
		MemberID:   issue.MemberID,
		CreatedAt:  issue.CreatedAt.UTC().Format(time.RFC3339Nano),
		Status:     issue.Status,
		Text:       issue.Text,
	}
}
