package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) AccessTTL() time.Duration { return j.AccessTokenTTL }

func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return j.sign(userID, email, TokenTypeAccess)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return j.sign(userID, email, TokenTypeRefresh)
}

// keyFor returns the secret and lifetime used for tokens of kind.
func (j *JWTTokenGenerator) keyFor(kind string) ([]byte, time.Duration) {
	if kind == TokenTypeRefresh {
		return j.RefreshTokenSecret, j.RefreshTokenTTL
	}
	return j.AccessTokenSecret, j.AccessTokenTTL
}

func (j *JWTTokenGenerator) sign(userID, email, kind string) (string, error) {
	secret, ttl := j.keyFor(kind)
	issued := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:    userID,
		Email:     email,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// ValidateToken verifies raw with the secret of kind. A token of the other
// kind fails either on its signature or on the typ claim.
func (j *JWTTokenGenerator) ValidateToken(raw, kind string) (*Claims, error) {
	secret, _ := j.keyFor(kind)
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil, claims.TokenType != kind:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
