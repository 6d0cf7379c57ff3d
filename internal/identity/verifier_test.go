package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestHS256Verifier_ValidToken(t *testing.T) {
	v, err := NewHS256Verifier("test-secret")
	require.NoError(t, err)

	token := signHS256(t, "test-secret", jwt.MapClaims{
		"sub":   "u-1",
		"email": "caller@x.test",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"app_metadata": map[string]any{
			"role":       "admin",
			"account_id": "acc-1",
		},
	})

	u, err := v.UserFromToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "caller@x.test", u.Email)
	assert.Equal(t, "admin", u.RoleClaim())
}

func TestHS256Verifier_RejectsBadTokens(t *testing.T) {
	v, err := NewHS256Verifier("test-secret")
	require.NoError(t, err)

	// Wrong secret.
	token := signHS256(t, "other-secret", jwt.MapClaims{"sub": "u-1"})
	_, err = v.UserFromToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Expired.
	token = signHS256(t, "test-secret", jwt.MapClaims{
		"sub": "u-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = v.UserFromToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// No subject claim.
	token = signHS256(t, "test-secret", jwt.MapClaims{"email": "x@x.test"})
	_, err = v.UserFromToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Not a token at all.
	_, err = v.UserFromToken(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewHS256Verifier_RequiresSecret(t *testing.T) {
	_, err := NewHS256Verifier("")
	require.Error(t, err)
}
