// Package jwt issues, parses, and revokes the access/refresh token
// pair the endpoint dispatcher's authentication pipeline verifies,
// grounded on the ancestor project's authn/jwt package (same Claims/
// GenTokens/ParseToken/Verify shape), generalized from a fixed "one
// session per user" cache to carry the roles/permissions a graph-
// scoped RBAC check needs without a database round trip per request.
package jwt

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	MinUserIDLength   = 1
	MinUsernameLength = 1
)

var (
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrTokenExpired     = errors.New("jwt: token expired")
	ErrTokenMalformed   = errors.New("jwt: token malformed")
	ErrTokenNotValidYet = errors.New("jwt: token not valid yet")
	ErrTokenRevoked     = errors.New("jwt: token revoked")
)

var (
	mu            sync.RWMutex
	secret        = []byte("change-me-in-config")
	issuer        = "jvspatial"
	accessExpiry  = 15 * time.Minute
	refreshExpiry = 7 * 24 * time.Hour
)

// revoked caches access tokens invalidated by logout/RevokeTokens;
// each entry is evicted 24 hours after it was added.
var revoked = expirable.NewLRU[string, struct{}](4096, nil, 24*time.Hour)

// Configure sets the signing secret, issuer, and token lifetimes; call
// once at startup from the loaded configuration.
func Configure(jwtSecret, jwtIssuer string, accessTTL, refreshTTL time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if jwtSecret != "" {
		secret = []byte(jwtSecret)
	}
	if jwtIssuer != "" {
		issuer = jwtIssuer
	}
	if accessTTL > 0 {
		accessExpiry = accessTTL
	}
	if refreshTTL > 0 {
		refreshExpiry = refreshTTL
	}
}

// Claims carries the identity and authorization data the dispatcher's
// RBAC check consumes directly off the decoded token, avoiding a user
// lookup on every authenticated request.
type Claims struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`

	jwt.RegisteredClaims
}

// GenTokens signs a fresh access/refresh pair for userID. If only the
// refresh token fails to sign, the access token is still returned with
// an empty refresh token and a nil error.
func GenTokens(userID, username string, roles, permissions []string) (accessToken, refreshToken string, err error) {
	if len(userID) < MinUserIDLength || len(username) < MinUsernameLength {
		return "", "", errors.New("jwt: invalid user id or username")
	}
	mu.RLock()
	defer mu.RUnlock()

	now := time.Now()
	claims := Claims{
		UserID:      userID,
		Username:    username,
		Roles:       roles,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}
	if accessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret); err != nil {
		return "", "", errors.Wrap(err, "failed to generate access token")
	}
	if refreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(refreshExpiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   userID,
	}).SignedString(secret); err != nil {
		return accessToken, "", nil
	}
	return accessToken, refreshToken, nil
}

// RevokeTokens invalidates accessToken immediately, independent of its
// stated expiry; used by logout and by admin user suspension.
func RevokeTokens(accessToken string) {
	revoked.Add(accessToken, struct{}{})
}

// ParseToken decodes and validates tokenStr, rejecting it if expired,
// malformed, wrongly issued, or revoked.
func ParseToken(tokenStr string) (*Claims, error) {
	if len(tokenStr) == 0 {
		return nil, ErrTokenMalformed
	}
	if _, ok := revoked.Get(tokenStr); ok {
		return nil, ErrTokenRevoked
	}

	mu.RLock()
	defer mu.RUnlock()
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotValidYet
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, errors.Wrap(err, "failed to parse token")
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer {
		return nil, errors.New("jwt: invalid token issuer")
	}
	return claims, nil
}

// ParseTokenFromHeader extracts and parses the Bearer token from an
// Authorization header.
func ParseTokenFromHeader(header http.Header) (token string, claims *Claims, err error) {
	value := header.Get("Authorization")
	if len(value) == 0 {
		return "", nil, ErrInvalidToken
	}
	items := strings.SplitN(value, " ", 2)
	if len(items) != 2 || items[0] != "Bearer" {
		return "", nil, ErrInvalidToken
	}
	token = items[1]
	claims, err = ParseToken(token)
	return token, claims, err
}

func keyFunc(*jwt.Token) (any, error) {
	mu.RLock()
	defer mu.RUnlock()
	return secret, nil
}
