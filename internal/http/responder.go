package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/workshop-scheduler/internal/application"
)

var (
	errBadRequestBody     = errors.New("the request body is not valid")
	errInvalidResourceID  = errors.New("the resource id is not valid")
	errInvalidDate        = errors.New("the date must be formatted as YYYY-MM-DD")
	errMissingCredentials = errors.New("credentials are required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application sentinels to HTTP statuses. Booking
// rejections keep distinct error codes so clients can tell a licence problem
// from a calendar one.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "the email or password is incorrect",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this action",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NOT_FOUND",
			Message:   "the requested record was not found",
		})
	case errors.Is(err, application.ErrEligibilityDenied):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "ELIGIBILITY_DENIED",
			Message:   "the member does not hold an active licence for this machine",
		})
	case errors.Is(err, application.ErrDurationExceeded):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "DURATION_EXCEEDED",
			Message:   "the reservation is longer than this machine allows",
		})
	case errors.Is(err, application.ErrClosedDate):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "CLOSED_DATE",
			Message:   "the workshop is closed on the requested date",
		})
	case errors.Is(err, application.ErrOutsideOperatingHours):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "OUTSIDE_OPERATING_HOURS",
			Message:   "the requested interval falls outside opening hours",
		})
	case errors.Is(err, application.ErrOverlap):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "OVERLAP",
			Message:   "the machine is already reserved for part of the requested interval",
		})
	case errors.Is(err, application.ErrPersistence):
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "PERSISTENCE",
			Message:   "the change could not be saved and has been rolled back",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				ErrorCode: "VALIDATION",
				Message:   "the input is not valid",
				Errors:    vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
