// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config.yaml. Environment
// variables use the TASKAPI_ prefix with dots replaced by underscores, so
// auth.jwt_secret is read from TASKAPI_AUTH_JWT_SECRET.
package config
