package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
)

// ListCategories returns one page of categories plus the total count.
func (s *Store) ListCategories(ctx context.Context, page pagination.Request) ([]models.Category, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT id, name, description FROM categories ORDER BY %s LIMIT $1 OFFSET $2`,
		page.OrderBy(CategorySortColumns, "name"),
	)
	rows, err := s.db.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.scanCategory(s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE id = $1`, id))
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	return s.scanCategory(s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE name = $1`, name))
}

// CreateCategory inserts a category; a duplicate name surfaces as
// ErrDuplicateName via the unique constraint.
func (s *Store) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2)
		 RETURNING id, name, description`,
		req.Name, req.Description,
	).Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx,
		`UPDATE categories SET name = $1, description = $2 WHERE id = $3
		 RETURNING id, name, description`,
		req.Name, req.Description, id,
	).Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if pqCode(err) == pqUniqueViolation {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes a category; the RESTRICT foreign key turns
// deletion of a still-referenced category into ErrCategoryInUse.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return ErrCategoryInUse
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanCategory(row *sql.Row) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
