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
	"github.com/example/workshop-scheduler/internal/availability"
	"github.com/example/workshop-scheduler/internal/persistence"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (persistence.Reservation, error)
	Reschedule(ctx context.Context, params application.RescheduleParams) (persistence.Reservation, error)
	DayView(ctx context.Context, resourceID int64, date time.Time) ([]persistence.Reservation, error)
	WeekView(ctx context.Context, resourceID int64, date time.Time) ([]persistence.Reservation, error)
	DayRoster(ctx context.Context, date time.Time) ([]application.RosterEntry, error)
	EligibleResources(ctx context.Context, memberID int64, asOf time.Time) ([]persistence.Resource, error)
	Slots(ctx context.Context, resourceID int64, date time.Time, stepMinutes int) ([]availability.TimeOfDay, error)
}

type ReservationHandler struct {
	service   reservationService
	slotStep  int
	now       func() time.Time
	responder responder
}

func NewReservationHandler(service reservationService, slotStepMinutes int, now func() time.Time, logger *slog.Logger) *ReservationHandler {
	if slotStepMinutes <= 0 {
		slotStepMinutes = 30
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationHandler{service: service, slotStep: slotStepMinutes, now: now, responder: newResponder(logger)}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Principal:  principal,
		MemberID:   req.MemberID,
		ResourceID: req.ResourceID,
		Start:      parseTimestamp(req.Start),
		End:        parseTimestamp(req.End),
		Category:   persistence.CategoryUsage,
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Reschedule(w http.ResponseWriter, r *http.Request, reservationID int64) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.Reschedule(r.Context(), application.RescheduleParams{
		Principal:     principal,
		ReservationID: reservationID,
		NewResourceID: req.ResourceID,
		NewStart:      parseTimestamp(req.Start),
		NewEnd:        parseTimestamp(req.End),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Day(w http.ResponseWriter, r *http.Request, resourceID int64) {
	h.renderView(w, r, resourceID, h.serviceDayView)
}

func (h *ReservationHandler) Week(w http.ResponseWriter, r *http.Request, resourceID int64) {
	h.renderView(w, r, resourceID, h.serviceWeekView)
}

func (h *ReservationHandler) serviceDayView(ctx context.Context, resourceID int64, date time.Time) ([]persistence.Reservation, error) {
	return h.service.DayView(ctx, resourceID, date)
}

func (h *ReservationHandler) serviceWeekView(ctx context.Context, resourceID int64, date time.Time) ([]persistence.Reservation, error) {
	return h.service.WeekView(ctx, resourceID, date)
}

func (h *ReservationHandler) renderView(w http.ResponseWriter, r *http.Request, resourceID int64, view func(context.Context, int64, time.Time) ([]persistence.Reservation, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := parseDateParam(r.URL.Query().Get("date"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	reservations, err := view(r.Context(), resourceID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Roster(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := parseDateParam(r.URL.Query().Get("date"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	entries, err := h.service.DayRoster(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]rosterEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, rosterEntryDTO{
			Resource:    toResourceDTO(entry.Resource),
			Reservation: toReservationDTO(entry.Reservation),
		})
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rosterResponse{Entries: out})
}

func (h *ReservationHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	asOf := h.now()
	if value := strings.TrimSpace(r.URL.Query().Get("as_of")); value != "" {
		if ts := parseTimestamp(value); !ts.IsZero() {
			asOf = ts
		}
	}

	memberID := principal.MemberID
	if value := strings.TrimSpace(r.URL.Query().Get("member_id")); value != "" && principal.IsAdmin() {
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			memberID = id
		}
	}

	resources, err := h.service.EligibleResources(r.Context(), memberID, asOf)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: toResourceDTOs(resources)})
}

func (h *ReservationHandler) Slots(w http.ResponseWriter, r *http.Request, resourceID int64) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := parseDateParam(r.URL.Query().Get("date"))
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	step := h.slotStep
	if value := strings.TrimSpace(r.URL.Query().Get("step")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			step = parsed
		}
	}

	slots, err := h.service.Slots(r.Context(), resourceID, date, step)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.String())
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{Slots: out})
}

type reservationRequest struct {
	MemberID   int64  `json:"member_id"`
	ResourceID int64  `json:"resource_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Notes      string `json:"notes"`
}

type rescheduleRequest struct {
	ResourceID int64  `json:"resource_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type rosterResponse struct {
	Entries []rosterEntryDTO `json:"entries"`
}

type rosterEntryDTO struct {
	Resource    resourceDTO    `json:"resource"`
	Reservation reservationDTO `json:"reservation"`
}

type slotsResponse struct {
	Slots []string `json:"slots"`
}

type reservationDTO struct {
	ID         int64  `json:"id"`
	ResourceID int64  `json:"resource_id"`
	MemberID   int64  `json:"member_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Category   string `json:"category"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}

func toReservationDTO(reservation persistence.Reservation) reservationDTO {
	return reservationDTO{
		ID:         reservation.ID,
		ResourceID: reservation.ResourceID,
		MemberID:   reservation.MemberID,
		Start:      reservation.Start.UTC().Format(time.RFC3339Nano),
		End:        reservation.End.UTC().Format(time.RFC3339Nano),
		Category:   string(reservation.Category),
		Status:     reservation.Status,
		Notes:      reservation.Notes,
	}
}

func toReservationDTOs(reservations []persistence.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

// parseTimestamp accepts RFC3339 with any offset and normalizes the instant
// to UTC so every stored reservation lives on one calendar.
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}

func parseDateParam(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
