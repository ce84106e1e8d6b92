// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the scheduling logic, so the session machine and the cache stay
// independent of the database technology behind them.
package store
