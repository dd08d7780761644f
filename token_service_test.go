package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	auth "github.com/lingopad/go-auth"
)

var testSigningKey = []byte("test-signing-key-32-bytes-long!!")

func newTestTokenService() *auth.TokenServiceImpl {
	return auth.NewTokenService(testSigningKey, "lingopad", jwt.ClaimStrings{"lingopad-web"}, nil)
}

func testSubject() auth.TokenSubject {
	return auth.TokenSubject{
		UserID: uuid.New(),
		Email:  "user@example.com",
		Roles:  []string{string(auth.RoleAdmin)},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ts := newTestTokenService()
	subject := testSubject()

	token, err := ts.IssueAccessToken(subject, false)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ts.ValidateAccessToken(token)
	assert.NoError(t, err)
	assert.Equal(t, subject.UserID.String(), claims.UserID())
	assert.Equal(t, subject.Email, claims.Email)
	assert.Equal(t, []string{string(auth.RoleAdmin)}, claims.Roles)
	assert.Equal(t, auth.TokenKindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)

	uid, err := claims.UserUUID()
	assert.NoError(t, err)
	assert.Equal(t, subject.UserID, uid)

	assert.WithinDuration(t, time.Now().Add(auth.AccessTokenTTL), claims.Expires(), 5*time.Second)
}

func TestExtendedAccessTokenExpiry(t *testing.T) {
	ts := newTestTokenService()

	token, err := ts.IssueAccessToken(testSubject(), true)
	assert.NoError(t, err)

	claims, err := ts.ValidateAccessToken(token)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(auth.ExtendedAccessTokenTTL), claims.Expires(), 5*time.Second)
}

func TestTokenKindSeparation(t *testing.T) {
	ts := newTestTokenService()
	subject := testSubject()

	access, err := ts.IssueAccessToken(subject, false)
	assert.NoError(t, err)
	refresh, err := ts.IssueRefreshToken(subject)
	assert.NoError(t, err)

	_, err = ts.ValidateAccessToken(refresh)
	assert.Error(t, err)

	_, err = ts.ValidateRefreshToken(access)
	assert.Error(t, err)

	claims, err := ts.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
	assert.Equal(t, auth.TokenKindRefresh, claims.Kind)
	assert.WithinDuration(t, time.Now().Add(auth.RefreshTokenSignatureTTL), claims.Expires(), 5*time.Second)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	ts := newTestTokenService()
	other := auth.NewTokenService([]byte("another-key-entirely-here-32b!!!"), "lingopad", jwt.ClaimStrings{"lingopad-web"}, nil)

	token, err := ts.IssueAccessToken(testSubject(), false)
	assert.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	other := auth.NewTokenService(testSigningKey, "someone-else", jwt.ClaimStrings{"lingopad-web"}, nil)
	ts := newTestTokenService()

	token, err := other.IssueAccessToken(testSubject(), false)
	assert.NoError(t, err)

	_, err = ts.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenError(t *testing.T) {
	ts := newTestTokenService()

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lingopad",
			Subject:   uuid.NewString(),
			Audience:  jwt.ClaimStrings{"lingopad-web"},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Kind: auth.TokenKindAccess,
	}

	token, err := ts.SignClaims(claims)
	assert.NoError(t, err)

	_, err = ts.ValidateAccessToken(token)
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestVerifyNeverErrors(t *testing.T) {
	ts := newTestTokenService()

	assert.Nil(t, auth.VerifyAccessToken(ts, "garbage"))
	assert.Nil(t, auth.VerifyAccessToken(ts, ""))
	assert.Nil(t, auth.VerifyRefreshToken(ts, "garbage"))

	token, err := ts.IssueAccessToken(testSubject(), false)
	assert.NoError(t, err)
	assert.NotNil(t, auth.VerifyAccessToken(ts, token))
}
