package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/auth"
	"github.com/finsight/backend/internal/models"
	"github.com/finsight/backend/internal/pagination"
	"github.com/finsight/backend/internal/problem"
	"github.com/finsight/backend/internal/store"
)

func newTransactionService(t *testing.T) (*TransactionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTransactionService(store.New(db)), mock
}

func testPrincipal() *auth.Principal {
	return &auth.Principal{
		Subject: "auth0|abc",
		Scopes:  map[string]struct{}{"SCOPE_fin:app": {}},
	}
}

func expectUserLookup(mock sqlmock.Sqlmock, subject string, id int64) {
	mock.ExpectQuery("SELECT id, auth0_sub, name, email FROM users WHERE auth0_sub = \\$1").
		WithArgs(subject).
		WillReturnRows(sqlmock.NewRows([]string{"id", "auth0_sub", "name", "email"}).
			AddRow(id, subject, "Ada", nil))
}

func testRequest() models.TransactionRequest {
	date := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	return models.TransactionRequest{
		Description: "Weekly groceries",
		Amount:      decimal.RequireFromString("54.20"),
		Date:        &date,
		Type:        models.TypeExpense,
	}
}

func TestTransactionServiceList(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the caller then lists", func(t *testing.T) {
		svc, mock := newTransactionService(t)

		expectUserLookup(mock, "auth0|abc", 7)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions t WHERE t.user_id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("WHERE t.user_id = \\$1").
			WithArgs(int64(7), 20, 0).
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "description", "amount", "date", "type", "notes", "category_id", "name"}))

		page, err := svc.List(ctx, testPrincipal(), pagination.Request{Size: 20})

		require.NoError(t, err)
		assert.NotNil(t, page.Content)
		assert.Empty(t, page.Content)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown caller is a 404 problem", func(t *testing.T) {
		svc, mock := newTransactionService(t)

		mock.ExpectQuery("SELECT id, auth0_sub, name, email FROM users WHERE auth0_sub = \\$1").
			WithArgs("auth0|abc").
			WillReturnError(sql.ErrNoRows)

		_, err := svc.List(ctx, testPrincipal(), pagination.Request{Size: 20})

		var pe *problem.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, problem.KindNotFound, pe.Kind)
		assert.Equal(t, "User not found: auth0|abc", pe.Detail)
	})
}

func TestTransactionServiceByType(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTransactionService(t)

	_, err := svc.ByType(ctx, testPrincipal(), "SHOPPING", pagination.Request{Size: 20})

	var pe *problem.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, problem.KindBadRequest, pe.Kind)
	assert.Equal(t, "Invalid transaction type: SHOPPING", pe.Detail)
}

func TestTransactionServiceByDateRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTransactionService(t)

	end := time.Now()
	start := end.Add(time.Hour)

	_, err := svc.ByDateRange(ctx, testPrincipal(), start, end, pagination.Request{Size: 20})

	var pe *problem.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, problem.KindBadRequest, pe.Kind)
	assert.Equal(t, "startDate must not be after endDate", pe.Detail)
}

func TestTransactionServiceGet(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTransactionService(t)

	expectUserLookup(mock, "auth0|abc", 7)
	mock.ExpectQuery("WHERE t.id = \\$1 AND t.user_id = \\$2").
		WithArgs(int64(42), int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(ctx, testPrincipal(), 42)

	var pe *problem.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, problem.KindNotFound, pe.Kind)
	assert.Equal(t, "Transaction not found: 42", pe.Detail)
}

func TestTransactionServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("persists for the caller", func(t *testing.T) {
		svc, mock := newTransactionService(t)
		req := testRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE auth0_sub = \\$1").
			WithArgs("auth0|abc").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
		mock.ExpectCommit()

		tx, err := svc.Create(ctx, testPrincipal(), req)

		require.NoError(t, err)
		assert.Equal(t, int64(101), tx.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown category is a 404 problem", func(t *testing.T) {
		svc, mock := newTransactionService(t)
		req := testRequest()
		categoryID := int64(999)
		req.CategoryID = &categoryID

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM users WHERE auth0_sub = \\$1").
			WithArgs("auth0|abc").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectQuery("SELECT name FROM categories WHERE id = \\$1").
			WithArgs(categoryID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := svc.Create(ctx, testPrincipal(), req)

		var pe *problem.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, problem.KindNotFound, pe.Kind)
		assert.Equal(t, "Category not found: 999", pe.Detail)
	})
}

func TestTransactionServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTransactionService(t)

	expectUserLookup(mock, "auth0|abc", 7)
	mock.ExpectExec("DELETE FROM transactions WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(int64(42), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, svc.Delete(ctx, testPrincipal(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
