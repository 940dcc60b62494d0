// Package domain contains the core business entities of the task API: users,
// the tasks they own, and the enumerations and validation rules attached to
// them. It has no knowledge of storage or transport.
package domain
