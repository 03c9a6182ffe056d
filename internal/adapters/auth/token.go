package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"calendasync/internal/domain"
)

const tokenIssuer = "calendasync"

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWTAuthority signs and verifies HS256 session tokens with a shared secret.
type JWTAuthority struct {
	secret []byte
	now    func() time.Time
}

var (
	_ domain.TokenIssuer   = (*JWTAuthority)(nil)
	_ domain.TokenVerifier = (*JWTAuthority)(nil)
)

func NewJWTAuthority(secret string) *JWTAuthority {
	return &JWTAuthority{secret: []byte(secret), now: time.Now}
}

func (a *JWTAuthority) Issue(userID, email string, expiry time.Duration) (string, error) {
	now := a.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the subject of a valid, unexpired token.
func (a *JWTAuthority) Verify(token string) (string, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
