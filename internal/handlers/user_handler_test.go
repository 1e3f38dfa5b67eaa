package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/models"
)

type stubUserService struct {
	user *models.User
	err  error

	gotReq models.UserUpdateRequest
}

func (s *stubUserService) Me(context.Context, *auth.Principal) (*models.User, error) {
	return s.user, s.err
}

func (s *stubUserService) UpdateMe(_ context.Context, _ *auth.Principal, req models.UserUpdateRequest) (*models.User, error) {
	s.gotReq = req
	return s.user, s.err
}

func (s *stubUserService) DeleteMe(context.Context, *auth.Principal) error {
	return s.err
}

func userRouter(svc UserOperations) http.Handler {
	h := NewUserHandler(svc, NewValidator())
	r := chi.NewRouter()
	r.Route("/api/users", h.Routes)
	return r
}

func TestUserMe(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		email := "ada@example.com"
		svc := &stubUserService{user: &models.User{
			ID: 7, Subject: "auth0|abc", Name: "Ada", Email: &email,
		}}
		router := userRouter(svc)

		req := authed(httptest.NewRequest("GET", "/api/users/me", nil))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(7), body["id"])
		assert.Equal(t, "auth0|abc", body["auth0Sub"])
		assert.Equal(t, "Ada", body["name"])
		assert.Equal(t, email, body["email"])
	})

	t.Run("no principal is a 401", func(t *testing.T) {
		router := userRouter(&stubUserService{})

		req := httptest.NewRequest("GET", "/api/users/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserUpdateMe(t *testing.T) {
	t.Run("updates the profile", func(t *testing.T) {
		svc := &stubUserService{user: &models.User{ID: 7, Subject: "auth0|abc", Name: "Ada Lovelace"}}
		router := userRouter(svc)

		body := `{"name":"Ada Lovelace","email":"ada@example.com"}`
		req := authed(httptest.NewRequest("PUT", "/api/users/me", strings.NewReader(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ada Lovelace", svc.gotReq.Name)
		require.NotNil(t, svc.gotReq.Email)
		assert.Equal(t, "ada@example.com", *svc.gotReq.Email)
	})

	t.Run("blank name fails validation", func(t *testing.T) {
		router := userRouter(&stubUserService{})

		req := authed(httptest.NewRequest("PUT", "/api/users/me", strings.NewReader(`{"name":""}`)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad email fails validation", func(t *testing.T) {
		router := userRouter(&stubUserService{})

		body := `{"name":"Ada","email":"not-an-email"}`
		req := authed(httptest.NewRequest("PUT", "/api/users/me", strings.NewReader(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserDeleteMe(t *testing.T) {
	router := userRouter(&stubUserService{})

	req := authed(httptest.NewRequest("DELETE", "/api/users/me", nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
