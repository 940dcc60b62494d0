package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/config"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/platform/sqlite"
	"github.com/phrazzld/task-api/internal/service"
	"github.com/phrazzld/task-api/internal/service/auth"
	"github.com/phrazzld/task-api/internal/store"
	"github.com/phrazzld/task-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery"

var testAuthConfig = config.AuthConfig{
	JWTSecret:                   "service-test-secret-at-least-32-characters",
	TokenLifetimeMinutes:        15,
	RefreshTokenLifetimeMinutes: 60,
	BcryptCost:                  bcrypt.MinCost,
}

func newUserService(t *testing.T) (service.UserService, store.UserStore) {
	t.Helper()

	db := testdb.NewSQLite(t)
	users := sqlite.NewSQLiteUserStore(db, nil)

	jwtService, err := auth.NewJWTService(testAuthConfig)
	require.NoError(t, err)

	return service.NewUserService(users, db, jwtService, auth.NewBcryptHasher(bcrypt.MinCost), nil), users
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	svc, users := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Alice@Example.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.Password)
	assert.NotEqual(t, testPassword, user.HashedPassword)

	stored, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte(testPassword)))

	t.Run("duplicate email differing only in case", func(t *testing.T) {
		_, err := svc.Register(ctx, "ALICE@example.com", testPassword)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob@example.com", "short")
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := svc.Register(ctx, "not-an-email", testPassword)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	svc, users := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol@example.com", testPassword)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		before := time.Now()
		tokens, err := svc.Login(ctx, "Carol@example.com", testPassword)
		require.NoError(t, err)

		assert.Equal(t, user.ID, tokens.UserID)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.WithinDuration(t, before.Add(15*time.Minute), tokens.ExpiresAt, 5*time.Second)

		stored, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.RefreshTokenID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "carol@example.com", "wrong password!!")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", testPassword)
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestUserService_Refresh(t *testing.T) {
	t.Parallel()

	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave@example.com", testPassword)
	require.NoError(t, err)

	first, err := svc.Login(ctx, "dave@example.com", testPassword)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	t.Run("rotated token is rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, service.ErrRefreshTokenRevoked)
	})

	t.Run("current token still works", func(t *testing.T) {
		third, err := svc.Refresh(ctx, second.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, third.AccessToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, first.AccessToken)
		assert.ErrorIs(t, err, auth.ErrWrongTokenType)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "")
		assert.ErrorIs(t, err, auth.ErrMissingToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		stale, err := auth.NewJWTService(testAuthConfig, auth.WithTimeFunc(func() time.Time { return past }))
		require.NoError(t, err)

		token, _, err := stale.GenerateRefreshToken(ctx, first.UserID)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, token)
		assert.ErrorIs(t, err, auth.ErrExpiredRefreshToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		issuer, err := auth.NewJWTService(testAuthConfig)
		require.NoError(t, err)

		token, _, err := issuer.GenerateRefreshToken(ctx, uuid.New())
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, token)
		assert.ErrorIs(t, err, service.ErrRefreshTokenRevoked)
	})
}

// staleUserStore serves GetByID from a snapshot so that a refresh sees the
// jti that was current before another refresh rotated it.
type staleUserStore struct {
	store.UserStore
	snapshot *domain.User
}

func (s *staleUserStore) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	u := *s.snapshot
	return &u, nil
}

func TestUserService_Refresh_RotationIsConditional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := testdb.NewSQLite(t)
	users := sqlite.NewSQLiteUserStore(db, nil)
	jwtService, err := auth.NewJWTService(testAuthConfig)
	require.NoError(t, err)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	svc := service.NewUserService(users, db, jwtService, hasher, nil)
	_, err = svc.Register(ctx, "erin@example.com", testPassword)
	require.NoError(t, err)
	first, err := svc.Login(ctx, "erin@example.com", testPassword)
	require.NoError(t, err)

	snapshot, err := users.GetByID(ctx, first.UserID)
	require.NoError(t, err)
	stale := service.NewUserService(&staleUserStore{UserStore: users, snapshot: snapshot}, db, jwtService, hasher, nil)

	_, err = stale.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	// The snapshot still names the first jti, so only the conditional write
	// can notice that it has already been used.
	_, err = stale.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, service.ErrRefreshTokenRevoked)
}

func TestUserService_Refresh_ConcurrentReuse(t *testing.T) {
	t.Parallel()

	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "frank@example.com", testPassword)
	require.NoError(t, err)
	tokens, err := svc.Login(ctx, "frank@example.com", testPassword)
	require.NoError(t, err)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		revoked   int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, tokens.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, service.ErrRefreshTokenRevoked):
				revoked++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, revoked)
}
