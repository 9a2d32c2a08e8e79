package visitor

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer("secret", "jobboard", time.Hour)
	require.NoError(t, err)

	id, token, err := iss.Issue()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseRejects(t *testing.T) {
	iss, err := NewIssuer("secret", "jobboard", time.Hour)
	require.NoError(t, err)
	_, token, err := iss.Issue()
	require.NoError(t, err)

	other, err := NewIssuer("other-secret", "jobboard", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewIssuer("secret", "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = wrongIssuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x", Issuer: "jobboard"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	iss, err := NewIssuer("secret", "jobboard", time.Minute)
	require.NoError(t, err)
	now := time.Now()
	iss.now = func() time.Time { return now }
	_, token, err := iss.Issue()
	require.NoError(t, err)

	iss.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = iss.Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestRandomKeyWhenSecretEmpty(t *testing.T) {
	a, err := NewIssuer("", "jobboard", 0)
	require.NoError(t, err)
	b, err := NewIssuer("", "jobboard", 0)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, a.TTL())

	_, token, err := a.Issue()
	require.NoError(t, err)
	_, err = b.Parse(token)
	assert.Error(t, err)
}
