package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
	"github.com/finsight/backend/internal/problem"
	"github.com/finsight/backend/internal/store"
)

// CategoryOperations is the service surface the handler needs.
type CategoryOperations interface {
	List(ctx context.Context, page pagination.Request) (pagination.Page[models.Category], error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, req models.CategoryRequest) (*models.Category, error)
	Update(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

type CategoryHandler struct {
	service   CategoryOperations
	validator *Validator
}

func NewCategoryHandler(service CategoryOperations, v *Validator) *CategoryHandler {
	return &CategoryHandler{service: service, validator: v}
}

// Routes mounts the category endpoints on an authenticated router.
func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/name/{name}", h.GetByName)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.Parse(r, store.CategorySortColumns)
	if err != nil {
		problem.Render(w, r, problem.BadRequest(err.Error()))
		return
	}
	result, err := h.service.List(r.Context(), page)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, err := h.service.GetByName(r.Context(), name)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.validator.Check(&req); err != nil {
		problem.Render(w, r, err)
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/categories/%d", c.ID))
	respondJSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	var req models.CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.validator.Check(&req); err != nil {
		problem.Render(w, r, err)
		return
	}
	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		problem.Render(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
