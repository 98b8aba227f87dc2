package store

import (
	"context"
	"database/sql"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing our code
// to work with either a database connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is an explicit transaction handle passed into repository calls.
// Writes made through a Tx become visible to other callers only after Commit.
// *sql.Tx satisfies this interface.
type Tx interface {
	DBTX
	Commit() error
	Rollback() error
}

// Transactor opens transactions.
type Transactor interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

// SQLTransactor adapts a *sql.DB to the Transactor interface.
type SQLTransactor struct {
	DB *sql.DB
}

// NewSQLTransactor wraps db so it can open store.Tx handles.
func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{DB: db}
}

// BeginTx implements Transactor.
func (t *SQLTransactor) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := t.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

var _ Tx = (*sql.Tx)(nil)
