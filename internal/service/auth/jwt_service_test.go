package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testConfig(secret string) config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   secret,
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60 * 24 * 7,
	}
}

func newTestService(t *testing.T, secret string, at time.Time) JWTService {
	t.Helper()
	svc, err := NewJWTService(testConfig(secret), WithTimeFunc(func() time.Time { return at }))
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(testConfig("short"))
	assert.Error(t, err)

	cfg := testConfig(testSecret)
	cfg.TokenLifetimeMinutes = 0
	_, err = NewJWTService(cfg)
	assert.Error(t, err)

	_, err = NewJWTService(testConfig(testSecret))
	assert.NoError(t, err)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestService(t, testSecret, fixedTime)

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name      string
		setupFunc func(t *testing.T) (JWTService, string)
		wantErr   error
	}{
		{
			name: "valid token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				svc := newTestService(t, testSecret, fixedTime)
				token, _ := svc.GenerateToken(context.Background(), userID)
				return svc, token
			},
		},
		{
			name: "expired token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				token, _ := newTestService(t, testSecret, fixedTime).GenerateToken(context.Background(), userID)
				return newTestService(t, testSecret, fixedTime.Add(2*time.Hour)), token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "issued in the future",
			setupFunc: func(t *testing.T) (JWTService, string) {
				token, _ := newTestService(t, testSecret, fixedTime.Add(10*time.Minute)).
					GenerateToken(context.Background(), userID)
				return newTestService(t, testSecret, fixedTime), token
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "invalid signature",
			setupFunc: func(t *testing.T) (JWTService, string) {
				token, _ := newTestService(t, testSecret, fixedTime).GenerateToken(context.Background(), userID)
				return newTestService(t, wrongSecret, fixedTime), token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				return newTestService(t, testSecret, fixedTime), "this.is.not.a.valid.jwt.token"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token used as access token",
			setupFunc: func(t *testing.T) (JWTService, string) {
				svc := newTestService(t, testSecret, fixedTime)
				token, _, _ := svc.GenerateRefreshToken(context.Background(), userID)
				return svc, token
			},
			wantErr: ErrWrongTokenType,
		},
		{
			name: "none algorithm",
			setupFunc: func(t *testing.T) (JWTService, string) {
				claims := jwtCustomClaims{
					UserID:    userID,
					TokenType: TokenTypeAccess,
					RegisteredClaims: jwt.RegisteredClaims{
						IssuedAt:  jwt.NewNumericDate(fixedTime),
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
					},
				}
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return newTestService(t, testSecret, fixedTime), token
			},
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, token := tt.setupFunc(t)
			claims, err := svc.ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestValidateToken_ClockSkew(t *testing.T) {
	t.Parallel()

	token, err := newTestService(t, testSecret, fixedTime).GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)
	justExpired := fixedTime.Add(15*time.Minute + 20*time.Second)

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "default leeway", opts: nil},
		{name: "wider leeway", opts: []Option{WithClockSkew(time.Minute)}},
		{name: "narrower leeway", opts: []Option{WithClockSkew(10 * time.Second)}, wantErr: ErrExpiredToken},
		{name: "no leeway", opts: []Option{WithClockSkew(0)}, wantErr: ErrExpiredToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := append([]Option{WithTimeFunc(func() time.Time { return justExpired })}, tc.opts...)
			svc, err := NewJWTService(testConfig(testSecret), opts...)
			require.NoError(t, err)

			_, err = svc.ValidateToken(context.Background(), token)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestService(t, testSecret, fixedTime)

	token, tokenID, err := svc.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		claims, err := svc.ValidateRefreshToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, tokenID, claims.ID)
		assert.Equal(t, TokenTypeRefresh, claims.TokenType)
		assert.Equal(t, fixedTime.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	})

	t.Run("each token has its own id", func(t *testing.T) {
		t.Parallel()
		_, otherID, err := svc.GenerateRefreshToken(context.Background(), userID)
		require.NoError(t, err)
		assert.NotEqual(t, tokenID, otherID)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		later := newTestService(t, testSecret, fixedTime.Add(8*24*time.Hour))
		_, err := later.ValidateRefreshToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrExpiredRefreshToken)
	})

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
		_, err := svc.ValidateRefreshToken(context.Background(), tampered)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("access token used as refresh token", func(t *testing.T) {
		t.Parallel()
		access, err := svc.GenerateToken(context.Background(), userID)
		require.NoError(t, err)
		_, err = svc.ValidateRefreshToken(context.Background(), access)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})
}
