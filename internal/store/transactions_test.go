package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
)

var txColumns = []string{"id", "description", "amount", "date", "type", "notes", "category_id", "name"}

func testDate() time.Time {
	return time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
}

func validTxRequest() models.TransactionRequest {
	date := testDate()
	return models.TransactionRequest{
		Description: "Weekly groceries",
		Amount:      decimal.RequireFromString("54.20"),
		Date:        &date,
		Type:        models.TypeExpense,
	}
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("scopes to the user", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions t WHERE t.user_id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("WHERE t.user_id = \\$1\\s+ORDER BY t.date DESC\\s+LIMIT \\$2 OFFSET \\$3").
			WithArgs(int64(7), 20, 0).
			WillReturnRows(sqlmock.NewRows(txColumns).
				AddRow(1, "Weekly groceries", "54.20", testDate(), "EXPENSE", "", 3, "Food"))

		transactions, total, err := st.ListTransactions(ctx, 7, TransactionFilter{}, pagination.Request{Size: 20})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, transactions, 1)
		assert.Equal(t, "Weekly groceries", transactions[0].Description)
		require.NotNil(t, transactions[0].CategoryName)
		assert.Equal(t, "Food", *transactions[0].CategoryName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies type and date filters", func(t *testing.T) {
		st, mock := newMockStore(t)
		start := testDate()
		end := start.AddDate(0, 1, 0)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions t WHERE t.user_id = \\$1 AND t.type = \\$2 AND t.date >= \\$3 AND t.date <= \\$4").
			WithArgs(int64(7), "EXPENSE", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("AND t.type = \\$2 AND t.date >= \\$3 AND t.date <= \\$4\\s+ORDER BY").
			WithArgs(int64(7), "EXPENSE", start, end, 20, 0).
			WillReturnRows(sqlmock.NewRows(txColumns))

		filter := TransactionFilter{Type: "EXPENSE", Start: &start, End: &end}
		transactions, total, err := st.ListTransactions(ctx, 7, filter, pagination.Request{Size: 20})

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, transactions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the owned row", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectQuery("WHERE t.id = \\$1 AND t.user_id = \\$2").
			WithArgs(int64(42), int64(7)).
			WillReturnRows(sqlmock.NewRows(txColumns).
				AddRow(42, "Salary", "2500.00", testDate(), "INCOME", "May", nil, nil))

		tx, err := st.GetTransaction(ctx, 7, 42)

		require.NoError(t, err)
		assert.Equal(t, int64(42), tx.ID)
		assert.Nil(t, tx.CategoryID)
		assert.Nil(t, tx.CategoryName)
	})

	t.Run("foreign row is ErrNotFound", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectQuery("WHERE t.id = \\$1 AND t.user_id = \\$2").
			WithArgs(int64(42), int64(8)).
			WillReturnError(sql.ErrNoRows)

		_, err := st.GetTransaction(ctx, 8, 42)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("existing user", func(t *testing.T) {
		st, mock := newMockStore(t)
		req := validTxRequest()
		categoryID := int64(3)
		req.CategoryID = &categoryID

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE auth0_sub = \\$1").
			WithArgs("auth0|abc").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectQuery("SELECT name FROM categories WHERE id = \\$1").
			WithArgs(categoryID).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Food"))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(req.Description, sqlmock.AnyArg(), *req.Date, req.Type, "", sqlmock.AnyArg(), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
		mock.ExpectCommit()

		tx, err := st.CreateTransaction(ctx, "auth0|abc", req)

		require.NoError(t, err)
		assert.Equal(t, int64(101), tx.ID)
		require.NotNil(t, tx.CategoryName)
		assert.Equal(t, "Food", *tx.CategoryName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first transaction creates the user row", func(t *testing.T) {
		st, mock := newMockStore(t)
		req := validTxRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE auth0_sub = \\$1").
			WithArgs("auth0|new").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO users \\(auth0_sub, name, email\\) VALUES \\(\\$1, 'New User', NULL\\)").
			WithArgs("auth0|new").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(req.Description, sqlmock.AnyArg(), *req.Date, req.Type, "", sqlmock.AnyArg(), int64(8)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(102))
		mock.ExpectCommit()

		tx, err := st.CreateTransaction(ctx, "auth0|new", req)

		require.NoError(t, err)
		assert.Equal(t, int64(102), tx.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown category rolls everything back", func(t *testing.T) {
		st, mock := newMockStore(t)
		req := validTxRequest()
		categoryID := int64(999)
		req.CategoryID = &categoryID

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE auth0_sub = \\$1").
			WithArgs("auth0|new").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("auth0|new").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
		mock.ExpectQuery("SELECT name FROM categories WHERE id = \\$1").
			WithArgs(categoryID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := st.CreateTransaction(ctx, "auth0|new", req)

		assert.ErrorIs(t, err, ErrCategoryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the category when none is given", func(t *testing.T) {
		st, mock := newMockStore(t)
		req := validTxRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE transactions").
			WithArgs(req.Description, sqlmock.AnyArg(), *req.Date, req.Type, "", sqlmock.AnyArg(), int64(42), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"category_id"}).AddRow(3))
		mock.ExpectQuery("SELECT name FROM categories WHERE id = \\$1").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Food"))
		mock.ExpectCommit()

		tx, err := st.UpdateTransaction(ctx, 7, 42, req)

		require.NoError(t, err)
		assert.Equal(t, int64(42), tx.ID)
		require.NotNil(t, tx.CategoryID)
		assert.Equal(t, int64(3), *tx.CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign row is ErrNotFound", func(t *testing.T) {
		st, mock := newMockStore(t)
		req := validTxRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE transactions").
			WithArgs(req.Description, sqlmock.AnyArg(), *req.Date, req.Type, "", sqlmock.AnyArg(), int64(42), int64(8)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := st.UpdateTransaction(ctx, 8, 42, req)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown replacement category is ErrCategoryNotFound", func(t *testing.T) {
		st, mock := newMockStore(t)
		req := validTxRequest()
		categoryID := int64(999)
		req.CategoryID = &categoryID

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT name FROM categories WHERE id = \\$1").
			WithArgs(categoryID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := st.UpdateTransaction(ctx, 7, 42, req)

		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the owned row", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectExec("DELETE FROM transactions WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(42), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, st.DeleteTransaction(ctx, 7, 42))
	})

	t.Run("foreign row is ErrNotFound", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectExec("DELETE FROM transactions WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(42), int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, st.DeleteTransaction(ctx, 8, 42), ErrNotFound)
	})
}
