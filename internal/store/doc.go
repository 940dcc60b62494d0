// Package store defines the persistence contracts for users and tasks.
//
// Implementations live under internal/platform (postgres and sqlite). Both
// must order tasks by the byte order of their string IDs so that keyset
// pagination over TaskQuery.AfterID behaves identically on either backend.
package store
