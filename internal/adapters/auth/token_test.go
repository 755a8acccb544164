package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("op-123", "op@example.org", "Wellington", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "op-123", claims.Subject)
	assert.Equal(t, "op@example.org", claims.Email)
	assert.Equal(t, "Wellington", claims.Venue)
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	token, err := issuer.Issue("op-123", "op@example.org", "Wellington", time.Hour)
	require.NoError(t, err)

	operatorID, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "op-123", operatorID)
}

func TestJWTVerifier_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTIssuer("secret-a")
	verifier := NewJWTVerifier("secret-b")

	token, err := issuer.Issue("op-123", "op@example.org", "Wellington", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTVerifier_RejectsExpiredToken(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	token, err := issuer.Issue("op-123", "op@example.org", "Wellington", -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}
