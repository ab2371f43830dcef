package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitter-clone/internal/domain"
)

func testUser() domain.User {
	return domain.User{
		ID:           "0b7c6a57-5d38-4c1f-9a57-2f6f7d1c3f10",
		Email:        "alice@example.com",
		Username:     "alice",
		Fullname:     "Alice Liddell",
		PasswordHash: "secret-hash",
		ConfirmHash:  "confirm",
		Confirmed:    true,
	}
}

func TestIssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", 0)
	require.NoError(t, err)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, claims.Subject)
	assert.Equal(t, "alice", claims.Data.Username)
	assert.True(t, claims.Data.Confirmed)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := mustIssuer(t, "one").Issue(testUser())
	require.NoError(t, err)

	_, err = mustIssuer(t, "two").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer := mustIssuer(t, "s3cret")
	issuer.now = func() time.Time { return time.Now().Add(-DefaultTokenTTL - time.Hour) }
	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := mustIssuer(t, "s3cret").Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestResult(t *testing.T) {
	_, ok := Anonymous().Principal()
	assert.False(t, ok)

	user, ok := Authenticated(testUser()).Principal()
	assert.True(t, ok)
	assert.Equal(t, "alice", user.Username)
}

func mustIssuer(t *testing.T, secret string) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(secret, time.Hour*24*30)
	require.NoError(t, err)
	return issuer
}
