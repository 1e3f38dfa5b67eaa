package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
)

// TransactionFilter narrows a transaction listing. The owning user id
// is always applied on top of it.
type TransactionFilter struct {
	Type       string
	Start      *time.Time
	End        *time.Time
	CategoryID *int64
}

const transactionColumns = `t.id, t.description, t.amount, t.date, t.type, t.notes, t.category_id, c.name`

// ListTransactions returns one page of the user's transactions joined
// with their category, plus the total count under the same filter.
func (s *Store) ListTransactions(ctx context.Context, userID int64, filter TransactionFilter, page pagination.Request) ([]models.Transaction, int64, error) {
	where := "t.user_id = $1"
	args := []any{userID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND t.type = $%d", len(args))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += fmt.Sprintf(" AND t.date >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += fmt.Sprintf(" AND t.date <= $%d", len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM transactions t WHERE %s`, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		transactionColumns, where,
		page.OrderBy(TransactionSortColumns, "t.date DESC"),
		len(args)+1, len(args)+2,
	)
	args = append(args, page.Size, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, total, rows.Err()
}

// GetTransaction returns the transaction iff it exists and belongs to
// the user; a cross-tenant id is indistinguishable from a miss.
func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.id = $1 AND t.user_id = $2`, transactionColumns),
		id, userID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tx, nil
}

// CreateTransaction persists a new transaction for the caller,
// creating the user row lazily when the subject has none. Both inserts
// share one database transaction so a failed insert leaves no orphan
// user behind.
func (s *Store) CreateTransaction(ctx context.Context, subject string, req models.TransactionRequest) (*models.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	var userID int64
	err = dbTx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE auth0_sub = $1`, subject,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = dbTx.QueryRowContext(ctx,
			`INSERT INTO users (auth0_sub, name, email) VALUES ($1, 'New User', NULL) RETURNING id`,
			subject,
		).Scan(&userID)
	}
	if err != nil {
		return nil, err
	}

	categoryName, err := resolveCategory(ctx, dbTx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	created := models.Transaction{
		Description:  req.Description,
		Amount:       req.Amount,
		Date:         *req.Date,
		Type:         req.Type,
		CategoryID:   req.CategoryID,
		CategoryName: categoryName,
		Notes:        req.Notes,
	}
	err = dbTx.QueryRowContext(ctx,
		`INSERT INTO transactions (description, amount, date, type, notes, category_id, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		req.Description, req.Amount, *req.Date, req.Type, req.Notes,
		nullInt64(req.CategoryID), userID,
	).Scan(&created.ID)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTransaction mutates the user's transaction in place. The
// category is only replaced when the request names one, matching the
// create/update DTO where categoryId is optional.
func (s *Store) UpdateTransaction(ctx context.Context, userID, id int64, req models.TransactionRequest) (*models.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	if _, err := resolveCategory(ctx, dbTx, req.CategoryID); err != nil {
		return nil, err
	}

	var categoryID sql.NullInt64
	err = dbTx.QueryRowContext(ctx,
		`UPDATE transactions
		 SET description = $1, amount = $2, date = $3, type = $4, notes = $5,
		     category_id = COALESCE($6, category_id)
		 WHERE id = $7 AND user_id = $8
		 RETURNING category_id`,
		req.Description, req.Amount, *req.Date, req.Type, req.Notes,
		nullInt64(req.CategoryID), id, userID,
	).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updated := models.Transaction{
		ID:          id,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        *req.Date,
		Type:        req.Type,
		Notes:       req.Notes,
	}
	if categoryID.Valid {
		updated.CategoryID = &categoryID.Int64
		name, err := resolveCategory(ctx, dbTx, updated.CategoryID)
		if err != nil {
			return nil, err
		}
		updated.CategoryName = name
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction hard-deletes the user's transaction.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// resolveCategory returns the category name for an optional id,
// ErrCategoryNotFound when the id points nowhere.
func resolveCategory(ctx context.Context, dbTx *sql.Tx, id *int64) (*string, error) {
	if id == nil {
		return nil, nil
	}
	var name string
	err := dbTx.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE id = $1`, *id,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &name, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx           models.Transaction
		categoryID   sql.NullInt64
		categoryName sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.Description, &tx.Amount, &tx.Date, &tx.Type,
		&tx.Notes, &categoryID, &categoryName)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		tx.CategoryID = &categoryID.Int64
	}
	if categoryName.Valid {
		tx.CategoryName = &categoryName.String
	}
	return &tx, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
