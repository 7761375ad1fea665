package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/polizadesk/ticketboard/internal/adapters/primary/http/middleware"
	"github.com/polizadesk/ticketboard/internal/auth"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// ProfileHandler handles HTTP requests for user profiles.
type ProfileHandler struct {
	authService    ports.AuthService
	profileService ports.ProfileService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(
	authService ports.AuthService,
	profileService ports.ProfileService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		authService:    authService,
		profileService: profileService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "profile"),
	}
}

// RegisterRoutes registers the profile routes.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Get("/assignable", h.HandleListAssignable)
}

// HandleMe handles GET /users/me. A missing profile row is repaired on the
// fly from the token's email.
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	user, err := h.authService.GetOrCreateProfile(r.Context(), claims.UserID, claims.Email)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleListAssignable handles GET /users/assignable. Admins see every
// profile; everyone else sees only themselves.
func (h *ProfileHandler) HandleListAssignable(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	users, err := h.profileService.ListAssignable(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toUserDTOs(users))
}

// getClaims extracts and validates user claims from the request context.
func (h *ProfileHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}
