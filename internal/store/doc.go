// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. Transactions are explicit: callers open a
// Tx through a Transactor (usually via RunInTransaction) and bind stores to
// it with WithTx.
package store
