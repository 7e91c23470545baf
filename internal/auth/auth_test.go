package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trimsdesk/internal/cache"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret")

	token, err := svc.GenerateAccessToken("alice", "user")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, AccessTokenExpiry.Seconds(), Remaining(claims).Seconds(), 5)
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("a").GenerateAccessToken("alice", "user")
	require.NoError(t, err)

	_, err = NewJWTService("b").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("secret")
	claims := &Claims{Username: "alice", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.Secret())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_RefreshTokenID(t *testing.T) {
	svc := NewJWTService("secret")
	id, token, err := svc.GenerateRefreshToken("alice", "admin")
	require.NoError(t, err)

	got, err := svc.ExtractTokenID(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func newStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	log, _ := test.NewNullLogger()
	return NewTokenStore(cache.New(mr.Addr(), "", 0, log)), mr
}

func TestTokenStore_RefreshLifecycle(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRefreshToken(ctx, "t1", "alice", time.Hour))
	username, err := store.GetRefreshToken(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	require.NoError(t, store.DeleteRefreshToken(ctx, "t1"))
	_, err = store.GetRefreshToken(ctx, "t1")
	assert.Error(t, err)
}

func TestTokenStore_Blacklist(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	ok, _ := store.IsAccessTokenBlacklisted(ctx, "a1")
	assert.False(t, ok)

	require.NoError(t, store.BlacklistAccessToken(ctx, "a1", time.Minute))
	ok, _ = store.IsAccessTokenBlacklisted(ctx, "a1")
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, _ = store.IsAccessTokenBlacklisted(ctx, "a1")
	assert.False(t, ok)
}

func TestTokenStore_RevokeUser(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	at, err := store.UserRevokedAt(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	require.NoError(t, store.StoreRefreshToken(ctx, "old", "bob", time.Hour))
	require.NoError(t, store.StoreRefreshToken(ctx, "other", "alice", time.Hour))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.RevokeUser(ctx, "bob"))

	_, err = store.GetRefreshToken(ctx, "old")
	assert.Error(t, err)
	username, err := store.GetRefreshToken(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.StoreRefreshToken(ctx, "new", "bob", time.Hour))
	username, err = store.GetRefreshToken(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "bob", username)

	at, err = store.UserRevokedAt(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, at.IsZero())
}

func TestRevokedBy(t *testing.T) {
	revokedAt := time.Now()
	issued := func(d time.Duration) *Claims {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(revokedAt.Add(d))}}
	}

	assert.False(t, RevokedBy(issued(-time.Hour), time.Time{}))
	assert.True(t, RevokedBy(issued(-time.Hour), revokedAt))
	assert.False(t, RevokedBy(issued(time.Hour), revokedAt))
	assert.True(t, RevokedBy(&Claims{}, revokedAt))
}
