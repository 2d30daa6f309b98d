package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type AuthTokenType string

const (
	// SessionToken is handed to clients and carried by the session cookie.
	SessionToken AuthTokenType = "session"
)

type Claims struct {
	Type AuthTokenType `json:"type"`
	jwt.RegisteredClaims
}

// Account is the signed-in account, the token subject.
func (c *Claims) Account() string {
	return c.Subject
}

// ParseClaims verifies an HS256 token signed with secret by issuer.
func ParseClaims(tokenString, secret, issuer string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
