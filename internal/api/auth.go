package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned when an operator token fails validation.
var ErrTokenInvalid = errors.New("api: invalid token")

// OperatorClaims are the JWT claims Enrollgate expects on operator tokens.
// Tokens are issued by the operator's identity provider and verified here
// by shared-secret signature only; there is no session state.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// parseOperatorToken validates and parses an operator JWT access token.
// It checks the signature, expiry, and the presence of a subject.
func parseOperatorToken(tokenString, secret string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}

// OperatorID returns the authenticated operator's subject from the request
// context, or the empty string if the request was not authenticated.
func OperatorID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyOperatorID).(string)
	return id
}
