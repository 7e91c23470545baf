package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trimsdesk/internal/cache"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

// StorageKey is the fixed key prefix of the persisted session record.
const StorageKey = "currentUser"

// Record is the persisted projection of a session.
type Record struct {
	Username       string        `json:"username"`
	Role           identity.Role `json:"role"`
	FullName       string        `json:"fullName"`
	AllowedModules []module.Page `json:"allowedModules"`
	DefaultPage    module.Page   `json:"defaultPage,omitempty"`
	ZoomLevel      string        `json:"zoomLevel,omitempty"`
	IsApproved     bool          `json:"isApproved"`
}

// RecordOf builds the persisted record of id.
func RecordOf(id identity.Identity) Record {
	return Record{
		Username:       id.Username,
		Role:           id.Role,
		FullName:       id.FullName,
		AllowedModules: id.AllowedModules,
		DefaultPage:    id.DefaultPage,
		ZoomLevel:      id.ZoomLevel,
		IsApproved:     id.IsApproved,
	}
}

// Identity rebuilds the snapshot from a persisted record.
func (r Record) Identity() identity.Identity {
	return identity.Identity{
		Username:       r.Username,
		Role:           identity.ParseRole(string(r.Role)),
		FullName:       r.FullName,
		AllowedModules: r.AllowedModules,
		DefaultPage:    r.DefaultPage,
		ZoomLevel:      r.ZoomLevel,
		IsApproved:     r.IsApproved,
	}.Clone()
}

// Persister stores session records between process restarts.
type Persister interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, username string) (*Record, error)
	Clear(ctx context.Context, username string) error
}

// RedisPersister keeps records in redis under currentUser:{username}.
type RedisPersister struct {
	cache *cache.Client
	ttl   time.Duration
}

var _ Persister = (*RedisPersister)(nil)

// NewRedisPersister creates a persister whose records expire after ttl.
func NewRedisPersister(cache *cache.Client, ttl time.Duration) *RedisPersister {
	return &RedisPersister{cache: cache, ttl: ttl}
}

func key(username string) string {
	return StorageKey + ":" + username
}

func (p *RedisPersister) Save(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return p.cache.Set(ctx, key(rec.Username), payload, p.ttl)
}

// Load returns nil, nil when no record is stored.
func (p *RedisPersister) Load(ctx context.Context, username string) (*Record, error) {
	data, err := p.cache.Get(ctx, key(username))
	if err != nil || data == nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &rec, nil
}

func (p *RedisPersister) Clear(ctx context.Context, username string) error {
	return p.cache.Delete(ctx, key(username))
}
