package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserRole string

const RoleStaff UserRole = "STAFF"

type Claims struct {
	Role UserRole `json:"role"`
	Name string   `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ParseBearerToken returns the token of an "Authorization: Bearer <token>"
// header value, or "" for any other scheme.
func ParseBearerToken(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func IssueAccessToken(secret, subject string, role UserRole, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrSecretMissing
	}
	expiresAt := now.Add(ttl)
	claims := Claims{
		Role: role,
		Name: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

var (
	ErrTokenRequired   = errors.New("token required")
	ErrSecretMissing   = errors.New("jwt secret not configured")
	errUnexpectedClaim = errors.New("unexpected token claims")
)

// VerifyAccessToken accepts HS256 tokens signed with secret that carry an
// expiry in the future.
func VerifyAccessToken(tokenString string, secret string) (*Claims, error) {
	return VerifyAccessTokenAt(tokenString, secret, time.Now())
}

// VerifyAccessTokenAt is VerifyAccessToken evaluated at now.
func VerifyAccessTokenAt(tokenString string, secret string, now time.Time) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenRequired
	}
	if secret == "" {
		return nil, ErrSecretMissing
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errUnexpectedClaim
	}
	return claims, nil
}
