package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"twitter-clone/internal/domain"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 30 * 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail signature, expiry or shape checks.
var ErrInvalidToken = errors.New("invalid token")

// Snapshot is the public view of a user embedded in a session token.
type Snapshot struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	Confirmed bool   `json:"confirmed"`
}

// Claims carries the user snapshot along with the registered JWT claims.
type Claims struct {
	Data Snapshot `json:"data"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token embedding a snapshot of user.
func (i *TokenIssuer) Issue(user domain.User) (string, error) {
	now := i.now()
	claims := Claims{
		Data: SnapshotOf(user),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenStr and returns its claims.
func (i *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	keyFunc := func(*jwt.Token) (any, error) { return i.secret, nil }
	token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func SnapshotOf(user domain.User) Snapshot {
	return Snapshot{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Fullname:  user.Fullname,
		Confirmed: user.Confirmed,
	}
}
