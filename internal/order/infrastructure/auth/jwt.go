package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// Claims mirrors the session tokens issued by the storefront login.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProvider resolves HS256 session tokens to identities.
type JWTProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret string, ttl time.Duration) (*JWTProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTProvider{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (p *JWTProvider) Resolve(_ context.Context, credential string) (domain.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(credential, &claims,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return domain.Identity{}, domain.Unauthenticated(err)
	}
	if claims.UserID == "" {
		return domain.Identity{}, domain.Unauthenticated(errors.New("token has no userId"))
	}
	return domain.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// Issue signs a token for id. The order service never logs anyone in; this
// exists for local tooling and tests.
func (p *JWTProvider) Issue(id domain.Identity) (string, error) {
	now := p.now()
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
