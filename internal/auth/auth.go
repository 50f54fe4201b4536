// Package auth implements the single-admin credential check and the JWT
// session tokens guarding the admin API.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"sitepulse/internal/config"
)

// CookieName is the cookie carrying the admin token. Tokens are also
// accepted as a Bearer authorization header for API clients.
const CookieName = "sitepulse_auth"

const adminSubject = "admin"

// ErrInvalidCredentials is returned on a failed login. Username and
// password failures are indistinguishable on purpose.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when a token is missing, malformed, expired
// or signed with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// Login checks the static admin credentials and mints a signed token on
// success. The configured password may be a bcrypt hash or plaintext; both
// are compared in a way that does not leak which byte mismatched.
func Login(cfg *config.Config, username, password string) (string, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.AdminUsername)) == 1

	var passwordOK bool
	if strings.HasPrefix(cfg.AdminPassword, "$2a$") || strings.HasPrefix(cfg.AdminPassword, "$2b$") {
		passwordOK = bcrypt.CompareHashAndPassword([]byte(cfg.AdminPassword), []byte(password)) == nil
	} else {
		passwordOK = subtle.ConstantTimeCompare([]byte(password), []byte(cfg.AdminPassword)) == 1
	}

	if !usernameOK || !passwordOK {
		return "", ErrInvalidCredentials
	}

	return issueToken(cfg, time.Now())
}

func issueToken(cfg *config.Config, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		Issuer:    cfg.AppName,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.GetTokenTTL())),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
func Verify(cfg *config.Config, tokenString string) (*jwt.RegisteredClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.PrivateKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != adminSubject {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TokenFromHeader extracts a bearer token from an Authorization header
// value, returning "" when there is none.
func TokenFromHeader(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
