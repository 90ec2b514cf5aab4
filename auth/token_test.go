package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenmag/domain"
	"greenmag/errs"
)

func fixedTokens(secret string, now time.Time) *Tokens {
	tk := NewTokens(secret, 0)
	tk.now = func() time.Time { return now }
	return tk
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	tk := fixedTokens("secret", now)

	token, err := tk.Issue(&domain.User{ID: 7, Email: "editor@greenmag.com", Role: domain.RoleEditor})
	require.NoError(t, err)

	ident, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 7, ident.UserID)
	assert.Equal(t, "editor@greenmag.com", ident.Email)
	assert.Equal(t, domain.RoleEditor, ident.Role)
}

func TestVerifyExpired(t *testing.T) {
	issuedAt := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	token, err := fixedTokens("secret", issuedAt).Issue(&domain.User{ID: 1, Role: domain.RoleUser})
	require.NoError(t, err)

	// Still valid just before the window closes.
	_, err = fixedTokens("secret", issuedAt.Add(DefaultTTL-time.Minute)).Verify(token)
	require.NoError(t, err)

	_, err = fixedTokens("secret", issuedAt.Add(DefaultTTL+time.Minute)).Verify(token)
	require.Error(t, err)
	assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))
	assert.Equal(t, "The credential has expired.", errs.ErrorMessage(err))
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Now()
	token, err := fixedTokens("secret", now).Issue(&domain.User{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = fixedTokens("other-secret", now).Verify(token)
	require.Error(t, err)
	assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))
	assert.Equal(t, "The credential signature is invalid.", errs.ErrorMessage(err))
}

func TestVerifyMalformed(t *testing.T) {
	tk := NewTokens("secret", 0)
	for _, token := range []string{"", "   ", "not-a-token", "a.b.c"} {
		_, err := tk.Verify(token)
		require.Error(t, err, token)
		assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err), token)
	}
}

func TestVerifyRejectsUnsignedAndUnknownRole(t *testing.T) {
	now := time.Now()
	tk := fixedTokens("secret", now)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		UserID:           1,
		Role:             domain.RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tk.Verify(unsigned)
	assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		UserID:           1,
		Role:             "SUPERUSER",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tk.Verify(badRole)
	assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: 1,
		Role:   domain.RoleAdmin,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tk.Verify(noExpiry)
	assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "", BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", BearerToken(r))

	r.Header.Set("Authorization", "bearer xyz")
	assert.Equal(t, "xyz", BearerToken(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	assert.Equal(t, "", BearerToken(r))
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetIdentity(ctx))

	ident := &domain.Identity{UserID: 3, Role: domain.RoleUser}
	ctx = SetIdentity(ctx, ident)
	assert.Equal(t, ident, GetIdentity(ctx))
}
