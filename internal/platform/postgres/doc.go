// Package postgres provides PostgreSQL implementations of the store
// interfaces. It owns the schema (embedded goose migrations), query
// execution, and the mapping of driver errors to store sentinels.
package postgres
