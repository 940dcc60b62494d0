package postgres

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
	"github.com/phrazzld/task-api/internal/store"
)

// PostgresUserStore implements store.UserStore on PostgreSQL.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a user store over db. If logger is nil the
// default logger is used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.Create
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	query := `
		INSERT INTO users (id, email, hashed_password, refresh_token_id, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.RefreshTokenID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already registered", slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "create", "insert failed", MapError(err))
	}

	log.Debug("user created", slog.String("user_id", user.ID.String()))
	return nil
}

const selectUserColumns = `SELECT id, email, hashed_password, COALESCE(refresh_token_id, ''), created_at, updated_at FROM users`

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, selectUserColumns+` WHERE id = $1`, id)
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, selectUserColumns+` WHERE email = $1`, domain.NormalizeEmail(email))
}

func (s *PostgresUserStore) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.RefreshTokenID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load user",
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}
	return &user, nil
}

// UpdateRefreshTokenID implements store.UserStore.UpdateRefreshTokenID
func (s *PostgresUserStore) UpdateRefreshTokenID(ctx context.Context, id uuid.UUID, tokenID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_id = NULLIF($1, ''), updated_at = $2 WHERE id = $3`,
		tokenID, time.Now().UTC(), id,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update refresh token",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return store.NewStoreError("user", "update", "refresh token update failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return nil
}

// RotateRefreshTokenID implements store.UserStore.RotateRefreshTokenID
func (s *PostgresUserStore) RotateRefreshTokenID(ctx context.Context, id uuid.UUID, oldTokenID, newTokenID string) error {
	if oldTokenID == "" {
		return store.ErrRefreshTokenMismatch
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_id = NULLIF($1, ''), updated_at = $2 WHERE id = $3 AND refresh_token_id = $4`,
		newTokenID, time.Now().UTC(), id, oldTokenID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to rotate refresh token",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return store.NewStoreError("user", "update", "refresh token rotation failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrRefreshTokenMismatch)
}
