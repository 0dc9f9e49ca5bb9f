package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/doc-summarizer/pkg/errors"
)

func TestService_IssueAndValidate(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", Issuer: "doc-summarizer", TokenTTL: time.Hour}, newTestLogger())

	issued, err := svc.IssueToken(context.Background(), IssueRequest{UserID: 42, Email: "User@Example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(context.Background(), issued.Token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, tokenTypeAccess, claims.TokenType)
}

func TestService_ValidateRejects(t *testing.T) {
	t.Parallel()

	svc := NewService(Config{Secret: "test-secret", TokenTTL: time.Hour}, newTestLogger())
	other := NewService(Config{Secret: "other-secret", TokenTTL: time.Hour}, newTestLogger())
	foreign, err := other.IssueToken(context.Background(), IssueRequest{UserID: 1})
	require.NoError(t, err)

	expiredSvc := NewService(Config{Secret: "test-secret", TokenTTL: time.Minute}, newTestLogger()).(*service)
	expiredSvc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredSvc.IssueToken(context.Background(), IssueRequest{UserID: 1})
	require.NoError(t, err)

	refresh := signRaw(t, "test-secret", tokenClaims{
		UserID:    1,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noExpiry := signRaw(t, "test-secret", tokenClaims{UserID: 1, TokenType: tokenTypeAccess})

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: "  "},
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: foreign.Token},
		{name: "expired", token: expired.Token},
		{name: "refresh type", token: refresh},
		{name: "missing expiry", token: noExpiry},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.ValidateToken(context.Background(), tt.token)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, "invalid_token"))
		})
	}
}

func TestService_IssueRequiresSubjectAndSecret(t *testing.T) {
	t.Parallel()

	svc := NewService(Config{Secret: "s"}, newTestLogger())
	_, err := svc.IssueToken(context.Background(), IssueRequest{})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	noSecret := NewService(Config{}, newTestLogger())
	_, err = noSecret.IssueToken(context.Background(), IssueRequest{UserID: 3})
	require.True(t, apperrors.IsCode(err, "auth_error"))
}

func signRaw(t *testing.T, secret string, claims tokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}
