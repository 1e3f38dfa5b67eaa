package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/finsight/backend/internal/models"
)

// FindUserBySubject resolves the user row for a principal subject.
func (s *Store) FindUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, auth0_sub, name, email FROM users WHERE auth0_sub = $1`,
		subject,
	).Scan(&u.ID, &u.Subject, &u.Name, &email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}

// UpdateUser mutates the profile fields; the subject is immutable.
func (s *Store) UpdateUser(ctx context.Context, id int64, name string, email *string) (*models.User, error) {
	var (
		u        models.User
		emailOut sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET name = $1, email = $2 WHERE id = $3
		 RETURNING id, auth0_sub, name, email`,
		name, nullString(email), id,
	).Scan(&u.ID, &u.Subject, &u.Name, &emailOut)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if emailOut.Valid {
		u.Email = &emailOut.String
	}
	return &u, nil
}

// DeleteUser removes the row; transactions cascade at the schema level.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
