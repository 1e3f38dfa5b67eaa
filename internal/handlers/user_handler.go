package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/problem"
)

// UserOperations is the service surface the handler needs.
type UserOperations interface {
	Me(ctx context.Context, principal *auth.Principal) (*models.User, error)
	UpdateMe(ctx context.Context, principal *auth.Principal, req models.UserUpdateRequest) (*models.User, error)
	DeleteMe(ctx context.Context, principal *auth.Principal) error
}

type UserHandler struct {
	service   UserOperations
	validator *Validator
}

func NewUserHandler(service UserOperations, v *Validator) *UserHandler {
	return &UserHandler{service: service, validator: v}
}

// Routes mounts the profile endpoints on an authenticated router.
func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Put("/me", h.UpdateMe)
	r.Delete("/me", h.DeleteMe)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	var req models.UserUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.validator.Check(&req); err != nil {
		problem.Render(w, r, err)
		return
	}
	user, err := h.service.UpdateMe(r.Context(), principal, req)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.service.DeleteMe(r.Context(), principal); err != nil {
		problem.Render(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
