// Package sqlite implements the store interfaces on an embedded SQLite
// database using the pure-Go modernc.org/sqlite driver. It backs local
// development and the test suite, and shares the schema shape and ordering
// rules of the postgres package.
package sqlite
