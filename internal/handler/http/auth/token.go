// Package auth issues and verifies HS256 access tokens and resolves the
// calling user for protected routes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"news-aggregator/internal/domain/entity"
)

const (
	MinSecretLength = 32
	DefaultTokenTTL = 30 * time.Minute
)

var (
	ErrWeakSecret   = fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength)
	ErrInvalidToken = errors.New("could not validate credentials")
)

// Claims are the access token claims: sub holds the username, uid the user id.
type Claims struct {
	UID int64 `json:"uid"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for u.
func (i *Issuer) Issue(u *entity.User) (string, error) {
	now := i.now()
	claims := Claims{
		UID: u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm and expiry. Every failure maps to
// ErrInvalidToken so callers cannot tell the reasons apart.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
