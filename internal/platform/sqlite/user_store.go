package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/store"
)

// SQLiteUserStore implements store.UserStore on SQLite.
type SQLiteUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteUserStore creates a user store over db.
func NewSQLiteUserStore(db store.DBTX, logger *slog.Logger) *SQLiteUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*SQLiteUserStore)(nil)

func (s *SQLiteUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &SQLiteUserStore{db: tx, logger: s.logger}
}

func (s *SQLiteUserStore) Create(ctx context.Context, user *domain.User) error {
	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, refresh_token_id, created_at, updated_at)
		 VALUES (?, ?, ?, NULLIF(?, ''), ?, ?)`,
		user.ID, user.Email, user.HashedPassword, user.RefreshTokenID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "create", "insert failed", MapError(err))
	}
	return nil
}

const selectUserColumns = `SELECT id, email, hashed_password, COALESCE(refresh_token_id, ''), created_at, updated_at FROM users`

func (s *SQLiteUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, selectUserColumns+` WHERE id = ?`, id)
}

func (s *SQLiteUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, selectUserColumns+` WHERE email = ?`, domain.NormalizeEmail(email))
}

func (s *SQLiteUserStore) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
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

func (s *SQLiteUserStore) UpdateRefreshTokenID(ctx context.Context, id uuid.UUID, tokenID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_id = NULLIF(?, ''), updated_at = ? WHERE id = ?`,
		tokenID, time.Now().UTC(), id,
	)
	if err != nil {
		return store.NewStoreError("user", "update", "refresh token update failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrUserNotFound)
}

func (s *SQLiteUserStore) RotateRefreshTokenID(ctx context.Context, id uuid.UUID, oldTokenID, newTokenID string) error {
	if oldTokenID == "" {
		return store.ErrRefreshTokenMismatch
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_id = NULLIF(?, ''), updated_at = ? WHERE id = ? AND refresh_token_id = ?`,
		newTokenID, time.Now().UTC(), id, oldTokenID,
	)
	if err != nil {
		return store.NewStoreError("user", "update", "refresh token rotation failed", MapError(err))
	}
	return checkRowsAffected(result, store.ErrRefreshTokenMismatch)
}
