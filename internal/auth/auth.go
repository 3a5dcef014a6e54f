// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role separates the single operator, who submits actions, from spectators,
// who only read.
type Role string

const (
	RoleOperator  Role = "operator"
	RoleSpectator Role = "spectator"
)

// Claims is the JWT payload for one table session.
type Claims struct {
	TableID uuid.UUID `json:"tableId"`
	Role    Role      `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies table tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// New creates a token service. TTL defaults to 12 hours, long enough for an
// evening of play.
func New(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("auth: empty JWT secret")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// IssueToken signs an HS256 token granting role access to one table.
func (s *Service) IssueToken(tableID uuid.UUID, role Role) (string, error) {
	now := time.Now()
	claims := Claims{
		TableID: tableID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "settlersd",
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and returns its claims.
func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// HashPasscode hashes a table passcode for storage.
func HashPasscode(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash passcode: %w", err)
	}
	return string(hash), nil
}

// CheckPasscode reports whether a passcode matches its stored hash.
func CheckPasscode(hash, passcode string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
