package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/polizadesk/ticketboard/internal/adapters/primary/http/middleware"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
)

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the JSON shape for a single error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// ValidationErrorResponse carries per-field messages for a rejected request
// body or query string.
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler translates domain errors into HTTP responses. All handler exit
// paths funnel through Handle so the status mapping lives in one place.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle writes the response for err and logs it leveled by status class.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	status, body := h.classify(err)
	h.log(r, status, err)
	WriteJSON(w, status, body)
}

// classify picks the status code and response body for an error. The checks
// run typed errors first, then sentinels; anything unrecognized becomes an
// opaque 500.
func (h *ErrorHandler) classify(err error) (int, any) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
	}

	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: validationErrs.Errors,
		}
	}

	// A domain field error names the first offending field.
	var fieldErr *apperrors.FieldRequiredError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, ErrorResponse{
			Error: fieldErr.Error(),
			Code:  "VALIDATION_ERROR",
			Field: fieldErr.Field,
		}
	}

	// An upstream failure aborted the action with no partial state change.
	// Suggest a retry without leaking driver details.
	var upstreamErr *apperrors.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadGateway, ErrorResponse{
			Error: "The ticket store is temporarily unavailable. Please try again.",
			Code:  "UPSTREAM_FAILURE",
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid email or password",
			Code:  "INVALID_CREDENTIALS",
		}
	case errors.Is(err, apperrors.ErrEmailNotConfirmed):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Please confirm your email before signing in",
			Code:  "EMAIL_NOT_CONFIRMED",
		}
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return http.StatusUnauthorized, ErrorResponse{
			Error: "Authentication required",
			Code:  "UNAUTHORIZED",
		}
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, ErrorResponse{
			Error: "You do not have permission to perform this action",
			Code:  "FORBIDDEN",
		}
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "User not found",
			Code:  "USER_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrTicketNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Ticket not found",
			Code:  "TICKET_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrUserExists):
		return http.StatusConflict, ErrorResponse{
			Error: "A user with this email already exists",
			Code:  "USER_EXISTS",
		}
	case errors.Is(err, apperrors.ErrInvalidStatus),
		errors.Is(err, apperrors.ErrEmailRequired),
		errors.Is(err, apperrors.ErrEmailInvalid),
		errors.Is(err, apperrors.ErrPasswordRequired),
		errors.Is(err, apperrors.ErrPasswordTooShort),
		errors.Is(err, apperrors.ErrFullNameRequired),
		errors.Is(err, apperrors.ErrInvalidRole):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

func (h *ErrorHandler) log(r *http.Request, status int, err error) {
	attrs := []any{
		"request_id", GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"error", err.Error(),
	}

	switch {
	case status >= 500:
		h.logger.Error("server error", attrs...)
	case status >= 400:
		h.logger.Warn("client error", attrs...)
	default:
		h.logger.Info("request error", attrs...)
	}
}
