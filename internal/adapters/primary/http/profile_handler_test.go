package http

import (
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/polizadesk/ticketboard/internal/adapters/primary/http/middleware"
	"github.com/polizadesk/ticketboard/internal/auth"
	"github.com/polizadesk/ticketboard/internal/core/domain"
	"github.com/polizadesk/ticketboard/internal/core/mocks"
)

func newProfileRouter(authSvc *mocks.MockAuthService, profileSvc *mocks.MockProfileService) (*chi.Mux, *auth.TokenManager) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)
	handler := NewProfileHandler(authSvc, profileSvc, errorHandler, logger)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Use(mw.JWTMiddleware(tokenManager))
	router.Route("/users", handler.RegisterRoutes)

	return router, tokenManager
}

func TestProfileHandler_Me(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	profileSvc := mocks.NewMockProfileService()
	router, tm := newProfileRouter(authSvc, profileSvc)

	viewer := &domain.User{
		ID:        uuid.New(),
		Email:     "viewer@example.com",
		FullName:  "Viewer",
		Role:      domain.RoleUser,
		CreatedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	authSvc.On("GetOrCreateProfile", mock.Anything, viewer.ID, viewer.Email).Return(viewer, nil)

	req := authedRequest(t, tm, viewer, stdhttp.MethodGet, "/users/me", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response UserDTO
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, viewer.ID.String(), response.ID)
	assert.Equal(t, "viewer@example.com", response.Email)
	assert.Equal(t, "Viewer", response.FullName)
	assert.Equal(t, string(domain.RoleUser), response.Role)

	authSvc.AssertExpectations(t)
}

func TestProfileHandler_Me_Unauthorized(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	profileSvc := mocks.NewMockProfileService()
	router, _ := newProfileRouter(authSvc, profileSvc)

	req := httptest.NewRequest(stdhttp.MethodGet, "/users/me", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
	authSvc.AssertNotCalled(t, "GetOrCreateProfile")
}

func TestProfileHandler_ListAssignable(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	profileSvc := mocks.NewMockProfileService()
	router, tm := newProfileRouter(authSvc, profileSvc)

	admin := &domain.User{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Role:  domain.RoleAdmin,
	}
	agent := &domain.User{
		ID:       uuid.New(),
		Email:    "agent@example.com",
		FullName: "Agent",
		Role:     domain.RoleAgent,
	}
	profileSvc.On("ListAssignable", mock.Anything, admin.ID).Return([]*domain.User{admin, agent}, nil)

	req := authedRequest(t, tm, admin, stdhttp.MethodGet, "/users/assignable", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response ListResponse[UserDTO]
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response.Data, 2)
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, agent.ID.String(), response.Data[1].ID)
	assert.Equal(t, string(domain.RoleAgent), response.Data[1].Role)

	profileSvc.AssertExpectations(t)
}
