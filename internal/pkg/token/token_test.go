package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestInspectReadsClaims(t *testing.T) {
	credential := signed(t, &Claims{
		Role:        "admin",
		ClubShortID: 87654321,
		TgUserID:    42,
	})

	claims, err := Inspect(credential)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, int64(87654321), claims.ClubShortID)
	assert.Equal(t, int64(42), claims.TgUserID)
}

// Older backend revisions carry the bound club in the subject claim.
func TestInspectFallsBackToSubject(t *testing.T) {
	credential := signed(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "87654321"},
	})

	claims, err := Inspect(credential)
	require.NoError(t, err)
	assert.Equal(t, int64(87654321), claims.ClubShortID)
}

func TestInspectNonNumericSubjectIgnored(t *testing.T) {
	credential := signed(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "owner@club"},
	})

	claims, err := Inspect(credential)
	require.NoError(t, err)
	assert.Zero(t, claims.ClubShortID)
}

func TestInspectRejectsNonTokens(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	assert.ErrorIs(t, err, ErrNotAToken)

	_, err = Inspect("")
	assert.ErrorIs(t, err, ErrNotAToken)
}
