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

type directoryService interface {
	CreateMember(ctx context.Context, principal application.Principal, input application.MemberInput) (persistence.Member, error)
	CreateLicence(ctx context.Context, principal application.Principal, name string) (persistence.Licence, error)
	GrantLicence(ctx context.Context, principal application.Principal, input application.GrantInput) (persistence.Grant, error)
	RevokeGrant(ctx context.Context, principal application.Principal, memberID, licenceID int64, validFrom time.Time) error
	SetMemberPassword(ctx context.Context, principal application.Principal, memberID int64, password string) error
	ListMembers(ctx context.Context) ([]persistence.Member, error)
	ActiveLicences(ctx context.Context, memberID int64, asOf time.Time) ([]int64, error)
}

type DirectoryHandler struct {
	service   directoryService
	now       func() time.Time
	responder responder
}

func NewDirectoryHandler(service directoryService, now func() time.Time, logger *slog.Logger) *DirectoryHandler {
	if now == nil {
		now = time.Now
	}
	return &DirectoryHandler{service: service, now: now, responder: newResponder(logger)}
}

func (h *DirectoryHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]memberDTO, 0, len(members))
	for _, member := range members {
		out = append(out, toMemberDTO(member))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMembersResponse{Members: out})
}

func (h *DirectoryHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	member, err := h.service.CreateMember(r.Context(), principal, application.MemberInput{
		Name:  strings.TrimSpace(req.Name),
		Role:  persistence.Role(strings.TrimSpace(req.Role)),
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if req.Password != "" {
		if err := h.service.SetMemberPassword(r.Context(), principal, member.ID, req.Password); err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, memberResponse{Member: toMemberDTO(member)})
}

func (h *DirectoryHandler) CreateLicence(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req licenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	licence, err := h.service.CreateLicence(r.Context(), principal, strings.TrimSpace(req.Name))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, licenceResponse{
		Licence: licenceDTO{ID: licence.ID, Name: licence.Name},
	})
}

func (h *DirectoryHandler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	validFrom, okFrom := parseDateParam(req.ValidFrom)
	validTo, okTo := parseDateParam(req.ValidTo)
	if !okFrom || !okTo {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	grant, err := h.service.GrantLicence(r.Context(), principal, application.GrantInput{
		MemberID:  req.MemberID,
		LicenceID: req.LicenceID,
		ValidFrom: validFrom,
		ValidTo:   validTo,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, grantResponse{Grant: toGrantDTO(grant)})
}

func (h *DirectoryHandler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	validFrom, ok := parseDateParam(req.ValidFrom)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.RevokeGrant(r.Context(), principal, req.MemberID, req.LicenceID, validFrom); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *DirectoryHandler) MemberLicences(w http.ResponseWriter, r *http.Request, memberID int64) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	asOf := h.now()
	if value := strings.TrimSpace(r.URL.Query().Get("as_of")); value != "" {
		if date, ok := parseDateParam(value); ok {
			asOf = date
		}
	}

	ids, err := h.service.ActiveLicences(r.Context(), memberID, asOf)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, memberLicencesResponse{
		MemberID:   memberID,
		LicenceIDs: ids,
	})
}

type memberRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type memberResponse struct {
	Member memberDTO `json:"member"`
}

type listMembersResponse struct {
	Members []memberDTO `json:"members"`
}

type memberDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

func toMemberDTO(member persistence.Member) memberDTO {
	return memberDTO{
		ID:    member.ID,
		Name:  member.Name,
		Role:  string(member.Role),
		Email: member.Email,
	}
}

type licenceRequest struct {
	Name string `json:"name"`
}

type licenceResponse struct {
	Licence licenceDTO `json:"licence"`
}

type licenceDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type grantRequest struct {
	MemberID  int64  `json:"member_id"`
	LicenceID int64  `json:"licence_id"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
}

type grantResponse struct {
	Grant grantDTO `json:"grant"`
}

type grantDTO struct {
	MemberID  int64  `json:"member_id"`
	LicenceID int64  `json:"licence_id"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
}

func toGrantDTO(grant persistence.Grant) grantDTO {
	return grantDTO{
		MemberID:  grant.MemberID,
		LicenceID: grant.LicenceID,
		ValidFrom: grant.ValidFrom.Format("2006-01-02"),
		ValidTo:   grant.ValidTo.Format("2006-01-02"),
	}
}

type memberLicencesResponse struct {
	MemberID   int64   `json:"member_id"`
	LicenceIDs []int64 `json:"licence_ids"`
}
