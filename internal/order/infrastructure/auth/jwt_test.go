package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

func TestJWTProvider_RoundTrip(t *testing.T) {
	p, err := NewJWTProvider("s3cret", time.Hour)
	require.NoError(t, err)

	token, err := p.Issue(domain.Identity{UserID: "user-1", Email: "a@b.c", Role: domain.RoleAdmin})
	require.NoError(t, err)

	id, err := p.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "a@b.c", id.Email)
	assert.True(t, id.IsAdmin())
}

func TestJWTProvider_Rejects(t *testing.T) {
	p, err := NewJWTProvider("s3cret", time.Hour)
	require.NoError(t, err)
	other, err := NewJWTProvider("different", time.Hour)
	require.NoError(t, err)

	forged, err := other.Issue(domain.Identity{UserID: "user-1"})
	require.NoError(t, err)

	expiring, err := NewJWTProvider("s3cret", time.Minute)
	require.NoError(t, err)
	expiring.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiring.Issue(domain.Identity{UserID: "user-1"})
	require.NoError(t, err)

	noUser, err := p.Issue(domain.Identity{Email: "x@y.z"})
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":     "not-a-jwt",
		"wrong key":   forged,
		"expired":     expired,
		"no user":     noUser,
		"alg none":    unsigned,
		"empty token": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Resolve(context.Background(), token)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestNewJWTProvider_RequiresSecret(t *testing.T) {
	_, err := NewJWTProvider("", time.Hour)
	assert.Error(t, err)
}
