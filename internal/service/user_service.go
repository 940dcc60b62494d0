package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
)

// AuthTokens is what a successful login or refresh hands back.
type AuthTokens struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the access token expiry.
	ExpiresAt time.Time
}

// Passwords hashes new passwords and checks presented ones.
type Passwords interface {
	auth.PasswordHasher
	auth.PasswordVerifier
}

// UserService handles account registration and token issuance.
type UserService interface {
	// Register creates an account. Returns store.ErrEmailExists when the
	// normalized email is already taken.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// Login returns ErrInvalidCredentials for an unknown email or a wrong
	// password. A successful login replaces any previously issued refresh
	// token.
	Login(ctx context.Context, email, password string) (*AuthTokens, error)

	// Refresh exchanges a refresh token for a new token pair. The presented
	// token stops working afterwards.
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)

	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore  store.UserStore
	jwtService auth.JWTService
	passwords  Passwords
	db         *sql.DB
	logger     *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	jwtService auth.JWTService,
	passwords Passwords,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore:  userStore,
		jwtService: jwtService,
		passwords:  passwords,
		db:         db,
		logger:     logger.With("component", "user_service"),
	}
}

// Register validates, hashes and stores a new user.
func (s *UserServiceImpl) Register(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(email, password)
	if err != nil {
		log.Debug("rejected registration", "error", err)
		return nil, err
	}

	hashed, err := s.passwords.Hash(user.Password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register existing email")
		} else {
			log.Error("failed to save user to database", "error", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues a fresh token pair.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to get user by email", "error", err)
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		log.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user.ID, "")
	if err != nil {
		return nil, err
	}

	log.Info("user logged in", "user_id", user.ID)
	return tokens, nil
}

// Refresh validates the refresh token, checks that it is the one currently
// stored for its user and rotates the pair.
func (s *UserServiceImpl) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if refreshToken == "" {
		return nil, auth.ErrMissingToken
	}

	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		log.Debug("refresh token rejected", "error", err)
		return nil, err
	}

	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Warn("refresh token for unknown user", "user_id", claims.UserID)
			return nil, ErrRefreshTokenRevoked
		}
		log.Error("failed to load user for refresh", "error", err, "user_id", claims.UserID)
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if user.RefreshTokenID == "" || user.RefreshTokenID != claims.ID {
		log.Warn("stale refresh token presented", "user_id", user.ID)
		return nil, ErrRefreshTokenRevoked
	}

	tokens, err := s.issueTokens(ctx, user.ID, claims.ID)
	if errors.Is(err, store.ErrRefreshTokenMismatch) {
		log.Warn("refresh token rotated concurrently", "user_id", user.ID)
		return nil, ErrRefreshTokenRevoked
	}
	if err != nil {
		return nil, err
	}

	log.Debug("refresh token rotated", "user_id", user.ID)
	return tokens, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// issueTokens mints a new pair. With a non-empty prevTokenID the stored
// refresh id is only replaced if it still equals prevTokenID.
func (s *UserServiceImpl) issueTokens(ctx context.Context, userID uuid.UUID, prevTokenID string) (*AuthTokens, error) {
	access, err := s.jwtService.GenerateToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	claims, err := s.jwtService.ValidateToken(ctx, access)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token expiry: %w", err)
	}

	refresh, tokenID, err := s.jwtService.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if prevTokenID == "" {
		err = s.userStore.UpdateRefreshTokenID(ctx, userID, tokenID)
	} else {
		err = s.userStore.RotateRefreshTokenID(ctx, userID, prevTokenID, tokenID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.ExpiresAt,
	}, nil
}
