package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trimsdesk/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
	revokedUserKeyPrefix  = "revoked_user:"
)

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID, username string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (username string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
	RevokeUser(ctx context.Context, username string) error
	UserRevokedAt(ctx context.Context, username string) (time.Time, error)
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

type refreshRecord struct {
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID, username string, ttl time.Duration) error {
	payload, err := json.Marshal(refreshRecord{Username: username, IssuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves the username a refresh token was issued to.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil || data == nil {
		return "", fmt.Errorf("refresh token not found")
	}

	var rec refreshRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("unmarshal token data: %w", err)
	}
	if rec.Username == "" {
		return "", fmt.Errorf("invalid username in token data")
	}
	revokedAt, err := s.UserRevokedAt(ctx, rec.Username)
	if err != nil {
		return "", err
	}
	if !revokedAt.IsZero() && rec.IssuedAt.Before(revokedAt) {
		return "", fmt.Errorf("refresh token revoked")
	}
	return rec.Username, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, accessTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil // fail safe
	}
	return data != nil, nil
}

// RevokeUser invalidates every token issued to username until now. The marker
// outlives the longest token.
func (s *TokenStore) RevokeUser(ctx context.Context, username string) error {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	return s.cache.Set(ctx, revokedUserKeyPrefix+username, []byte(stamp), RefreshTokenExpiry)
}

// UserRevokedAt returns when username's tokens were last revoked, or the zero
// time.
func (s *TokenStore) UserRevokedAt(ctx context.Context, username string) (time.Time, error) {
	data, err := s.cache.Get(ctx, revokedUserKeyPrefix+username)
	if err != nil || data == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(data))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse revocation of %s: %w", username, err)
	}
	return t, nil
}

// RevokedBy reports whether claims were issued before revokedAt. JWT issue
// times have second precision, so tokens from the revocation second pass.
func RevokedBy(claims *Claims, revokedAt time.Time) bool {
	if revokedAt.IsZero() {
		return false
	}
	if claims == nil || claims.IssuedAt == nil {
		return true
	}
	return claims.IssuedAt.Time.Before(revokedAt.Truncate(time.Second))
}
