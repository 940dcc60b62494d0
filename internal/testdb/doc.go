// Package testdb provides database fixtures for tests.
//
// NewSQLite returns a migrated in-memory SQLite database and always works, so
// store and service tests use it by default. GetTestDBWithT connects to the
// PostgreSQL database named by DATABASE_URL and skips the test when that
// variable is unset. WithTx runs a test body in a transaction that is always
// rolled back, which keeps PostgreSQL tests isolated from one another.
package testdb
