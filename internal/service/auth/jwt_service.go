package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTService issues and validates the bearer tokens used by the API.
type JWTService interface {
	// GenerateToken creates a signed access token for userID.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks signature, expiry and type of an access token.
	// Returns ErrExpiredToken, ErrInvalidToken or ErrWrongTokenType.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for userID and
	// returns it together with its jti, which the caller stores so that only
	// the latest refresh token is accepted.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (token string, tokenID string, err error)

	// ValidateRefreshToken checks signature, expiry and type of a refresh
	// token. Returns ErrExpiredRefreshToken, ErrInvalidRefreshToken or
	// ErrWrongTokenType.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of a token.
type Claims struct {
	UserID    uuid.UUID
	TokenType string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// ID is the jti claim.
	ID string
}
