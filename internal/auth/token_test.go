package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/conductor/internal/model"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestIssuer(clk *fakeClock) *Issuer {
	return NewIssuer(Config{
		Secret:     "test-secret",
		Issuer:     "conductor-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 14 * 24 * time.Hour,
		Now:        clk.Now,
	})
}

func testUser() model.User {
	return model.User{ID: 42, Email: "ana@example.com", Name: "Ana", Role: model.RoleAdmin}
}

func TestIssueAndParseAccess(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(clk)

	tok, err := iss.IssueAccess(testUser())
	require.NoError(t, err)
	assert.Equal(t, clk.t.Add(15*time.Minute), tok.Exp)
	assert.NotEmpty(t, tok.ID)

	claims, err := iss.ParseAccess(tok.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestEveryAccessTokenHasItsOwnID(t *testing.T) {
	iss := newTestIssuer(&fakeClock{t: time.Now()})
	a, err := iss.IssueAccess(testUser())
	require.NoError(t, err)
	b, err := iss.IssueAccess(testUser())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestParseAccessExpired(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(clk)
	tok, err := iss.IssueAccess(testUser())
	require.NoError(t, err)

	clk.t = clk.t.Add(16 * time.Minute)
	_, err = iss.ParseAccess(tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseAccessMalformed(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	iss := newTestIssuer(clk)

	_, err := iss.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	other := NewIssuer(Config{Secret: "other", Issuer: "conductor-test", AccessTTL: time.Minute, Now: clk.Now})
	tok, err := other.IssueAccess(testUser())
	require.NoError(t, err)
	_, err = iss.ParseAccess(tok.Token)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	// alg none is never accepted
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "42", "exp": clk.t.Add(time.Hour).Unix()})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestNewRefresh(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	iss := newTestIssuer(clk)
	rt, err := iss.NewRefresh()
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Equal(t, HashRefreshRaw(rt.Raw), rt.Hash)
	assert.NotContains(t, rt.Hash, rt.Raw)
	assert.Equal(t, clk.t.Add(14*24*time.Hour), rt.Exp)

	again, err := iss.NewRefresh()
	require.NoError(t, err)
	assert.False(t, strings.EqualFold(rt.Raw, again.Raw))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
