package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DefaultIssuer is the iss claim of tokens minted by this server.
const DefaultIssuer = "natabridge"

// Issuer signs HS256 access tokens.
type Issuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewIssuer(key []byte, ttl time.Duration) *Issuer {
	return &Issuer{key: key, ttl: ttl, issuer: DefaultIssuer, now: time.Now}
}

// Issue returns a signed token for the user and its expiry.
func (i *Issuer) Issue(userID uuid.UUID, role string) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	if !ValidRole(role) {
		return "", time.Time{}, fmt.Errorf("invalid role %q", role)
	}
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// JWTConfig returns the middleware configuration that accepts tokens from
// this issuer.
func (i *Issuer) JWTConfig(skipper func(echo.Context) bool) JWTConfig {
	return JWTConfig{SigningKey: i.key, Issuer: i.issuer, Skipper: skipper}
}
