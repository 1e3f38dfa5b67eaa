// Package services implements the domain operations. Every method
// takes the verified principal explicitly and applies ownership
// scoping before touching the store; failures are typed problem
// errors the HTTP adapter maps in one place.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
	"github.com/finsight/backend/internal/problem"
	"github.com/finsight/backend/internal/store"
)

type TransactionService struct {
	store *store.Store
}

func NewTransactionService(st *store.Store) *TransactionService {
	return &TransactionService{store: st}
}

// resolveCaller maps the principal to its user row. Absence is a
// NotFound: only Create may mint a user.
func (s *TransactionService) resolveCaller(ctx context.Context, principal *auth.Principal) (*models.User, error) {
	user, err := s.store.FindUserBySubject(ctx, principal.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, problem.NotFound("User not found: " + principal.Subject)
		}
		return nil, problem.Internal(err)
	}
	return user, nil
}

// List returns the caller's transactions, newest first by default.
func (s *TransactionService) List(ctx context.Context, principal *auth.Principal, page pagination.Request) (pagination.Page[models.Transaction], error) {
	return s.list(ctx, principal, store.TransactionFilter{}, page)
}

// ByType filters the caller's transactions by the type enum.
func (s *TransactionService) ByType(ctx context.Context, principal *auth.Principal, txType string, page pagination.Request) (pagination.Page[models.Transaction], error) {
	if !models.ValidType(txType) {
		return pagination.Page[models.Transaction]{},
			problem.BadRequest("Invalid transaction type: " + txType)
	}
	return s.list(ctx, principal, store.TransactionFilter{Type: txType}, page)
}

// ByDateRange filters by start <= date <= end.
func (s *TransactionService) ByDateRange(ctx context.Context, principal *auth.Principal, start, end time.Time, page pagination.Request) (pagination.Page[models.Transaction], error) {
	if start.After(end) {
		return pagination.Page[models.Transaction]{},
			problem.BadRequest("startDate must not be after endDate")
	}
	return s.list(ctx, principal, store.TransactionFilter{Start: &start, End: &end}, page)
}

// ByCategory filters by category id.
func (s *TransactionService) ByCategory(ctx context.Context, principal *auth.Principal, categoryID int64, page pagination.Request) (pagination.Page[models.Transaction], error) {
	return s.list(ctx, principal, store.TransactionFilter{CategoryID: &categoryID}, page)
}

func (s *TransactionService) list(ctx context.Context, principal *auth.Principal, filter store.TransactionFilter, page pagination.Request) (pagination.Page[models.Transaction], error) {
	var empty pagination.Page[models.Transaction]
	user, err := s.resolveCaller(ctx, principal)
	if err != nil {
		return empty, err
	}
	content, total, err := s.store.ListTransactions(ctx, user.ID, filter, page)
	if err != nil {
		return empty, problem.Internal(err)
	}
	return pagination.NewPage(content, page, total), nil
}

// Get returns a single transaction; a miss and a cross-tenant id are
// both NotFound so foreign ids are never confirmed to exist.
func (s *TransactionService) Get(ctx context.Context, principal *auth.Principal, id int64) (*models.Transaction, error) {
	user, err := s.resolveCaller(ctx, principal)
	if err != nil {
		return nil, err
	}
	tx, err := s.store.GetTransaction(ctx, user.ID, id)
	if err != nil {
		return nil, mapTransactionErr(err, id)
	}
	return tx, nil
}

// Create persists a transaction for the caller, creating the user row
// lazily inside the store's single transaction.
func (s *TransactionService) Create(ctx context.Context, principal *auth.Principal, req models.TransactionRequest) (*models.Transaction, error) {
	tx, err := s.store.CreateTransaction(ctx, principal.Subject, req)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return nil, problem.NotFound(categoryDetail(req.CategoryID))
		}
		return nil, problem.Internal(err)
	}
	log.Printf("[TRANSACTION] created %d for subject %s", tx.ID, principal.Subject)
	return tx, nil
}

// Update mutates the caller's transaction in place.
func (s *TransactionService) Update(ctx context.Context, principal *auth.Principal, id int64, req models.TransactionRequest) (*models.Transaction, error) {
	user, err := s.resolveCaller(ctx, principal)
	if err != nil {
		return nil, err
	}
	tx, err := s.store.UpdateTransaction(ctx, user.ID, id, req)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return nil, problem.NotFound(categoryDetail(req.CategoryID))
		}
		return nil, mapTransactionErr(err, id)
	}
	return tx, nil
}

// Delete hard-deletes the caller's transaction.
func (s *TransactionService) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	user, err := s.resolveCaller(ctx, principal)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, user.ID, id); err != nil {
		return mapTransactionErr(err, id)
	}
	log.Printf("[TRANSACTION] deleted %d for subject %s", id, principal.Subject)
	return nil
}

func mapTransactionErr(err error, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return problem.NotFound(fmt.Sprintf("Transaction not found: %d", id))
	}
	return problem.Internal(err)
}

func categoryDetail(id *int64) string {
	if id == nil {
		return "Category not found"
	}
	return fmt.Sprintf("Category not found: %d", *id)
}
