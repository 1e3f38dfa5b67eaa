package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
	"github.com/finsight/backend/internal/problem"
	"github.com/finsight/backend/internal/store"
)

// TransactionOperations is the service surface the handler needs.
type TransactionOperations interface {
	List(ctx context.Context, principal *auth.Principal, page pagination.Request) (pagination.Page[models.Transaction], error)
	Get(ctx context.Context, principal *auth.Principal, id int64) (*models.Transaction, error)
	ByType(ctx context.Context, principal *auth.Principal, txType string, page pagination.Request) (pagination.Page[models.Transaction], error)
	ByDateRange(ctx context.Context, principal *auth.Principal, start, end time.Time, page pagination.Request) (pagination.Page[models.Transaction], error)
	ByCategory(ctx context.Context, principal *auth.Principal, categoryID int64, page pagination.Request) (pagination.Page[models.Transaction], error)
	Create(ctx context.Context, principal *auth.Principal, req models.TransactionRequest) (*models.Transaction, error)
	Update(ctx context.Context, principal *auth.Principal, id int64, req models.TransactionRequest) (*models.Transaction, error)
	Delete(ctx context.Context, principal *auth.Principal, id int64) error
}

type TransactionHandler struct {
	service   TransactionOperations
	validator *Validator
}

func NewTransactionHandler(service TransactionOperations, v *Validator) *TransactionHandler {
	return &TransactionHandler{service: service, validator: v}
}

// Routes mounts the transaction endpoints on an authenticated router.
func (h *TransactionHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/type/{type}", h.ByType)
	r.Get("/date-range", h.ByDateRange)
	r.Get("/category/{categoryId}", h.ByCategory)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List returns a page of the caller's transactions.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, page, err := h.pageArgs(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	result, err := h.service.List(r.Context(), principal, page)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID returns one transaction owned by the caller.
func (h *TransactionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	tx, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// ByType filters by the {type} path segment.
func (h *TransactionHandler) ByType(w http.ResponseWriter, r *http.Request) {
	principal, page, err := h.pageArgs(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	result, err := h.service.ByType(r.Context(), principal, chi.URLParam(r, "type"), page)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ByDateRange filters by the startDate/endDate query parameters
// (ISO-8601 with offset).
func (h *TransactionHandler) ByDateRange(w http.ResponseWriter, r *http.Request) {
	principal, page, err := h.pageArgs(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	start, err := timeParam(r, "startDate")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	end, err := timeParam(r, "endDate")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	result, err := h.service.ByDateRange(r.Context(), principal, start, end, page)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ByCategory filters by the {categoryId} path segment.
func (h *TransactionHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	principal, page, err := h.pageArgs(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	categoryID, err := idParam(r, "categoryId")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	result, err := h.service.ByCategory(r.Context(), principal, categoryID, page)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create persists a new transaction and answers 201 with a Location
// header for the new resource.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	var req models.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.validator.Check(&req); err != nil {
		problem.Render(w, r, err)
		return
	}
	tx, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/transactions/%d", tx.ID))
	respondJSON(w, http.StatusCreated, tx)
}

// Update replaces the mutable fields of the caller's transaction.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	var req models.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.validator.Check(&req); err != nil {
		problem.Render(w, r, err)
		return
	}
	tx, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

// Delete removes the caller's transaction.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFrom(r)
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		problem.Render(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		problem.Render(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) pageArgs(r *http.Request) (*auth.Principal, pagination.Request, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return nil, pagination.Request{}, err
	}
	page, err := pagination.Parse(r, store.TransactionSortColumns)
	if err != nil {
		return nil, pagination.Request{}, problem.BadRequest(err.Error())
	}
	return principal, page, nil
}

func timeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, problem.BadRequest(name + " is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, problem.BadRequest(fmt.Sprintf("Invalid %s: %q", name, raw))
	}
	return t, nil
}
