package services

import (
	"context"
	"errors"
	"log"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/problem"
	"github.com/finsight/backend/internal/store"
)

// UserService operates on the caller's own user row only. Rows are
// created lazily by the transaction service, never here.
type UserService struct {
	store *store.Store
}

func NewUserService(st *store.Store) *UserService {
	return &UserService{store: st}
}

// Me returns the caller's profile.
func (s *UserService) Me(ctx context.Context, principal *auth.Principal) (*models.User, error) {
	return s.find(ctx, principal)
}

// UpdateMe mutates name and email; the subject is immutable.
func (s *UserService) UpdateMe(ctx context.Context, principal *auth.Principal, req models.UserUpdateRequest) (*models.User, error) {
	user, err := s.find(ctx, principal)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateUser(ctx, user.ID, req.Name, req.Email)
	if err != nil {
		return nil, mapUserErr(err, principal.Subject)
	}
	return updated, nil
}

// DeleteMe removes the caller's row; owned transactions cascade at the
// schema level.
func (s *UserService) DeleteMe(ctx context.Context, principal *auth.Principal) error {
	user, err := s.find(ctx, principal)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		return mapUserErr(err, principal.Subject)
	}
	log.Printf("[USER] deleted account for subject %s", principal.Subject)
	return nil
}

func (s *UserService) find(ctx context.Context, principal *auth.Principal) (*models.User, error) {
	user, err := s.store.FindUserBySubject(ctx, principal.Subject)
	if err != nil {
		return nil, mapUserErr(err, principal.Subject)
	}
	return user, nil
}

func mapUserErr(err error, subject string) error {
	if errors.Is(err, store.ErrNotFound) {
		return problem.NotFound("User not found: " + subject)
	}
	return problem.Internal(err)
}
