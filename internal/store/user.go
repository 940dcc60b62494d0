package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user. The user must already carry a HashedPassword.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail looks the user up by normalized email.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateRefreshTokenID replaces the stored refresh token identifier.
	// An empty tokenID revokes refresh for the user.
	UpdateRefreshTokenID(ctx context.Context, id uuid.UUID, tokenID string) error

	// RotateRefreshTokenID swaps oldTokenID for newTokenID in a single
	// conditional write. Returns ErrRefreshTokenMismatch when the user does
	// not exist or its stored id is no longer oldTokenID.
	RotateRefreshTokenID(ctx context.Context, id uuid.UUID, oldTokenID, newTokenID string) error

	WithTx(tx *sql.Tx) UserStore
}
