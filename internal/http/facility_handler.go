package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/workshop-scheduler/internal/application"
	"github.com/example/workshop-scheduler/internal/persistence"
)

type facilityService interface {
	CreateResource(ctx context.Context, principal application.Principal, input application.ResourceInput) (persistence.Resource, error)
	UpdateResource(ctx context.Context, principal application.Principal, resourceID int64, input application.ResourceInput) (persistence.Resource, error)
	ListResources(ctx context.Context) ([]persistence.Resource, error)
	SetWeeklyHours(ctx context.Context, principal application.Principal, inputs []application.WeeklyHoursInput) error
	AddClosedDate(ctx context.Context, principal application.Principal, input application.ClosedDateInput) error
	RemoveClosedDate(ctx context.Context, principal application.Principal, date time.Time) error
}

type FacilityHandler struct {
	service   facilityService
	responder responder
}

func NewFacilityHandler(service facilityService, logger *slog.Logger) *FacilityHandler {
	return &FacilityHandler{service: service, responder: newResponder(logger)}
}

func (h *FacilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resources, err := h.service.ListResources(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: toResourceDTOs(resources)})
}

func (h *FacilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.CreateResource(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *FacilityHandler) Update(w http.ResponseWriter, r *http.Request, resourceID int64) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.UpdateResource(r.Context(), principal, resourceID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *FacilityHandler) SetHours(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req weeklyHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	inputs := make([]application.WeeklyHoursInput, 0, len(req.Days))
	for _, day := range req.Days {
		inputs = append(inputs, application.WeeklyHoursInput{
			Weekday:   day.Weekday,
			Open:      day.Open,
			OpenTime:  day.OpenTime,
			CloseTime: day.CloseTime,
		})
	}

	if err := h.service.SetWeeklyHours(r.Context(), principal, inputs); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *FacilityHandler) AddClosedDate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req closedDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	date, ok := parseDateParam(req.Date)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	err := h.service.AddClosedDate(r.Context(), principal, application.ClosedDateInput{
		Date:   date,
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, nil)
}

func (h *FacilityHandler) RemoveClosedDate(w http.ResponseWriter, r *http.Request, rawDate string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := parseDateParam(rawDate)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.RemoveClosedDate(r.Context(), principal, date); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type resourceRequest struct {
	Name                  string  `json:"name"`
	SerialNo              string  `json:"serial_no"`
	RequiredLicenceID     *int64  `json:"required_licence_id"`
	MaxReservationMinutes int     `json:"max_reservation_minutes"`
	ServiceIntervalHours  float64 `json:"service_interval_hours"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	return application.ResourceInput{
		Name:                  strings.TrimSpace(r.Name),
		SerialNo:              strings.TrimSpace(r.SerialNo),
		RequiredLicenceID:     r.RequiredLicenceID,
		MaxReservationMinutes: r.MaxReservationMinutes,
		ServiceIntervalHours:  r.ServiceIntervalHours,
	}
}

type weeklyHoursRequest struct {
	Days []weeklyHoursDayDTO `json:"days"`
}

type weeklyHoursDayDTO struct {
	Weekday   int    `json:"weekday"`
	Open      bool   `json:"open"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

type closedDateRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type resourceResponse struct {
	Resource resourceDTO `json:"resource"`
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}

type resourceDTO struct {
	ID                    int64   `json:"id"`
	Name                  string  `json:"name"`
	SerialNo              string  `json:"serial_no,omitempty"`
	RequiredLicenceID     *int64  `json:"required_licence_id,omitempty"`
	MaxReservationMinutes int     `json:"max_reservation_minutes"`
	ServiceIntervalHours  float64 `json:"service_interval_hours"`
	LastServiceAt         string  `json:"last_service_at,omitempty"`
}

func toResourceDTO(resource persistence.Resource) resourceDTO {
	dto := resourceDTO{
		ID:                    resource.ID,
		Name:                  resource.Name,
		SerialNo:              resource.SerialNo,
		RequiredLicenceID:     resource.RequiredLicenceID,
		MaxReservationMinutes: resource.MaxReservationMinutes,
		ServiceIntervalHours:  resource.ServiceIntervalHours,
	}
	if resource.LastServiceAt != nil {
		dto.LastServiceAt = resource.LastServiceAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toResourceDTOs(resources []persistence.Resource) []resourceDTO {
	if len(resources) == 0 {
		return nil
	}
	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	return out
}
