// Package store is the relational access layer. Every transaction
// query is scoped to an owning user id; callers above resolve the
// principal to that id first.
package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Errors the service layer maps to problem kinds.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateName    = errors.New("name already exists")
	ErrCategoryInUse    = errors.New("category is referenced by transactions")
	ErrCategoryNotFound = errors.New("category not found")
)

// Store wraps the postgres pool.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Sort whitelists: request sort field -> column expression. Anything
// outside these maps never reaches SQL.
var (
	TransactionSortColumns = map[string]string{
		"id":          "t.id",
		"date":        "t.date",
		"amount":      "t.amount",
		"description": "t.description",
		"type":        "t.type",
	}
	CategorySortColumns = map[string]string{
		"id":   "id",
		"name": "name",
	}
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
