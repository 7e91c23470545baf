package model

import (
	"time"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

// User is a document in the users collection, keyed by username.
type User struct {
	Username       string        `json:"username"`
	PasswordHash   string        `json:"passwordHash,omitempty"`
	LegacyPassword string        `json:"password,omitempty"` // plaintext, migrated to PasswordHash on login
	FullName       string        `json:"fullName"`
	Role           string        `json:"role"`
	AllowedModules []module.Page `json:"allowedModules"`
	DefaultPage    module.Page   `json:"defaultPage,omitempty"`
	ZoomLevel      string        `json:"zoomLevel,omitempty"`
	IsApproved     bool          `json:"isApproved"`
	IsOnline       bool          `json:"isOnline"`
	CreatedAt      *time.Time    `json:"createdAt,omitempty"`
	LastLogin      *time.Time    `json:"lastLogin,omitempty"`
}

// DefaultZoom is used when a user has never picked a zoom level.
const DefaultZoom = "100"

// Identity projects the record onto the snapshot the policy layers consume.
func (u User) Identity() identity.Identity {
	zoom := u.ZoomLevel
	if zoom == "" {
		zoom = DefaultZoom
	}
	modules := make([]module.Page, 0, len(u.AllowedModules))
	for _, p := range u.AllowedModules {
		if p.Valid() {
			modules = append(modules, p)
		}
	}
	return identity.Identity{
		Username:       u.Username,
		Role:           identity.ParseRole(u.Role),
		FullName:       u.FullName,
		AllowedModules: modules,
		DefaultPage:    u.DefaultPage,
		ZoomLevel:      zoom,
		IsApproved:     u.IsApproved,
	}
}

// UserView is a user record without credentials, as returned by the admin API.
type UserView struct {
	Username       string        `json:"username"`
	FullName       string        `json:"fullName"`
	Role           string        `json:"role"`
	AllowedModules []module.Page `json:"allowedModules"`
	DefaultPage    module.Page   `json:"defaultPage,omitempty"`
	IsApproved     bool          `json:"isApproved"`
	IsOnline       bool          `json:"isOnline"`
	CreatedAt      *time.Time    `json:"createdAt,omitempty"`
	LastLogin      *time.Time    `json:"lastLogin,omitempty"`
}

// View strips credentials.
func (u User) View() UserView {
	return UserView{
		Username:       u.Username,
		FullName:       u.FullName,
		Role:           u.Role,
		AllowedModules: u.AllowedModules,
		DefaultPage:    u.DefaultPage,
		IsApproved:     u.IsApproved,
		IsOnline:       u.IsOnline,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
	}
}
