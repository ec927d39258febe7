package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidShareToken is returned for missing, expired, forged or
// mismatched share tokens.
var ErrInvalidShareToken = errors.New("invalid share token")

// ShareLinks issues and checks the signed tokens carried by candidate links.
type ShareLinks struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewShareLinks(secret string, ttl time.Duration, clk clock.Clock) *ShareLinks {
	if clk == nil {
		clk = clock.New()
	}
	return &ShareLinks{secret: []byte(secret), ttl: ttl, clock: clk}
}

// Issue signs a token for interviewID.
func (s *ShareLinks) Issue(interviewID string) (string, time.Time, error) {
	now := s.clock.Now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   interviewID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign share token: %w", err)
	}
	return token, expires, nil
}

// Validate checks that token is current and was issued for interviewID.
func (s *ShareLinks) Validate(token, interviewID string) error {
	if token == "" {
		return ErrInvalidShareToken
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidShareToken, err)
	}
	if claims.Subject != interviewID {
		return fmt.Errorf("%w: issued for another interview", ErrInvalidShareToken)
	}
	return nil
}
