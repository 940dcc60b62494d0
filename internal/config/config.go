package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Pagination PaginationConfig `mapstructure:"pagination" validate:"required"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects the storage backend. For postgres URL is a
// connection string; for sqlite it is a file path or ":memory:".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=1441"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,lt=44641"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost" validate:"required,gte=4,lte=31"`
	ClockSkewSeconds            int    `mapstructure:"clock_skew_seconds" validate:"gte=0,lte=300"`
}

// TokenLifetime is the access token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// ClockSkew is the leeway allowed on token time claims.
func (c AuthConfig) ClockSkew() time.Duration {
	return time.Duration(c.ClockSkewSeconds) * time.Second
}

// RefreshTokenLifetime is the refresh token lifetime as a duration.
func (c AuthConfig) RefreshTokenLifetime() time.Duration {
	return time.Duration(c.RefreshTokenLifetimeMinutes) * time.Minute
}

// PaginationConfig bounds the page size of task listings.
type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"required,gt=0,ltefield=MaxLimit"`
	MaxLimit     int `mapstructure:"max_limit" validate:"required,gt=0,lte=1000"`
}

// RateLimitConfig throttles the authentication endpoints. An empty RedisURL
// selects the in-process limiter.
type RateLimitConfig struct {
	Requests      int    `mapstructure:"requests" validate:"required,gt=0"`
	WindowSeconds int    `mapstructure:"window_seconds" validate:"required,gt=0"`
	RedisURL      string `mapstructure:"redis_url" validate:"omitempty,url"`
}

// Window is the rate limit window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}
