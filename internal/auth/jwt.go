package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is stamped into every token this service signs.
const Issuer = "team-collab"

// Profile is the display identity the identity provider asserts for a
// principal. It travels inside the token so the first request can create
// the account without another round trip.
type Profile struct {
	Name    string
	Email   string
	Picture string
}

// Claims is the payload of an access token. The subject is the principal
// id; everything else is profile.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID parses the subject claim.
func (c *Claims) PrincipalID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse subject: %w", err)
	}
	return id, nil
}

func (c *Claims) Profile() Profile {
	return Profile{Name: c.Name, Email: c.Email, Picture: c.Picture}
}

// GenerateToken signs an HS256 token for principalID that expires after
// ttl. Production tokens come from the identity provider; this is used by
// tests and local development.
func GenerateToken(principalID uuid.UUID, profile Profile, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Name:    profile.Name,
		Email:   profile.Email,
		Picture: profile.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns
// its claims.
//
// Checks, in order:
//  1. The header's alg must be an HMAC method. Without this a token with
//     alg "none", or an RSA public key passed off as the HMAC secret, would
//     pass verification.
//  2. The signature must match secret.
//  3. exp must be present and in the future. jwt/v5 accepts a token with
//     no exp unless WithExpirationRequired is set.
//  4. sub must parse as a UUID, since it becomes the principal id every
//     authorization decision is keyed on.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if _, err := claims.PrincipalID(); err != nil {
		return nil, err
	}
	return claims, nil
}
