// Package service contains the task API's use cases. It coordinates domain
// objects and the store interfaces, applies transaction boundaries and
// ownership checks, and translates store failures into service errors that
// the API layer maps onto HTTP responses.
//
// Services depend on store interfaces only, never on a specific backend.
package service
