// Package auth validates access tokens issued by the auth service
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the claim set the auth service signs into access tokens
type accessClaims struct {
	UserID *int   `json:"user_id"`
	Role   *int   `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenValidator validates HS256 access tokens
type TokenValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenValidator creates a validator for tokens signed with secret
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// ValidateAccessToken returns the user ID and role carried by an unexpired access token.
// Refresh tokens and tokens missing either identity claim are rejected.
func (tv *TokenValidator) ValidateAccessToken(tokenString string) (int, int, error) {
	var claims accessClaims
	_, err := tv.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return tv.secret, nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse token: %w", err)
	}

	switch {
	case claims.Type != "access":
		return 0, 0, errors.New("token is not an access token")
	case claims.UserID == nil:
		return 0, 0, errors.New("user_id not found in token")
	case claims.Role == nil:
		return 0, 0, errors.New("role not found in token")
	}

	return *claims.UserID, *claims.Role, nil
}
