package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Token lifetimes. The refresh signature expiry is fixed; the database
// record's expires_at, not the signature, is what remember-me extends.
const (
	AccessTokenTTL           = 24 * time.Hour
	ExtendedAccessTokenTTL   = 7 * 24 * time.Hour
	RefreshTokenSignatureTTL = 30 * 24 * time.Hour
)

// TokenService issues and validates signed access and refresh tokens.
type TokenService interface {
	IssueAccessToken(subject TokenSubject, extended bool) (string, error)
	IssueRefreshToken(subject TokenSubject) (string, error)
	ValidateAccessToken(tokenString string) (*JWTClaims, error)
	ValidateRefreshToken(tokenString string) (*JWTClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// NewTokenServiceFromConfig wires a token service from the host config.
func NewTokenServiceFromConfig(cfg Config, logger Logger) *TokenServiceImpl {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		jwt.ClaimStrings(cfg.GetAudience()),
		logger,
	)
}

var _ TokenService = (*TokenServiceImpl)(nil)

// IssueAccessToken signs a short-lived access token: 24h, or 7d when the
// session is extended (remember-me).
func (ts *TokenServiceImpl) IssueAccessToken(subject TokenSubject, extended bool) (string, error) {
	ttl := AccessTokenTTL
	if extended {
		ttl = ExtendedAccessTokenTTL
	}
	return ts.sign(subject, TokenKindAccess, ttl)
}

// IssueRefreshToken signs a refresh token with the fixed 30-day signature
// expiry regardless of remember-me.
func (ts *TokenServiceImpl) IssueRefreshToken(subject TokenSubject) (string, error) {
	return ts.sign(subject, TokenKindRefresh, RefreshTokenSignatureTTL)
}

func (ts *TokenServiceImpl) sign(subject TokenSubject, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject.UserID.String(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:   subject.UserID.String(),
		Email: subject.Email,
		Roles: subject.Roles,
		Kind:  kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// ValidateAccessToken parses and validates an access token string.
func (ts *TokenServiceImpl) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return ts.validate(tokenString, TokenKindAccess)
}

// ValidateRefreshToken parses and validates a refresh token string.
func (ts *TokenServiceImpl) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return ts.validate(tokenString, TokenKindRefresh)
}

func (ts *TokenServiceImpl) validate(tokenString string, kind TokenKind) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.Kind != kind {
		ts.logger.Warn("TokenService validate rejected token of wrong kind: want %s got %s", kind, claims.Kind)
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// VerifyAccessToken is the non-erroring form used where a bad token is a
// normal outcome: malformed or expired tokens yield nil, never an error.
func VerifyAccessToken(ts TokenService, tokenString string) *JWTClaims {
	claims, err := ts.ValidateAccessToken(tokenString)
	if err != nil {
		return nil
	}
	return claims
}

// VerifyRefreshToken mirrors VerifyAccessToken for refresh tokens.
func VerifyRefreshToken(ts TokenService, tokenString string) *JWTClaims {
	claims, err := ts.ValidateRefreshToken(tokenString)
	if err != nil {
		return nil
	}
	return claims
}
