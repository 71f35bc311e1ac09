package repository

import "database/sql"

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods that must run inside a transfer's atomic unit take a
// Querier so the same code serves both the transactional path and the
// lock-based fallback.
type Querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
