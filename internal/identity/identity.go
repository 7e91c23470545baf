// Package identity holds the immutable view of "who is acting" that the path
// resolver, access policy and data layers consume.
package identity

import (
	"slices"

	"trimsdesk/internal/module"
)

// Role is a user's coarse privilege level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps stored role strings onto Role; anything but "admin" is a user.
func ParseRole(raw string) Role {
	if Role(raw) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Identity is a snapshot of a session. Values are never mutated after
// construction; the session owner publishes a new snapshot instead.
type Identity struct {
	Username       string
	Role           Role
	FullName       string
	AllowedModules []module.Page
	DefaultPage    module.Page
	ZoomLevel      string
	IsApproved     bool
}

// IsAdmin reports whether the identity has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Allows reports whether p is in the allowed module list.
func (i *Identity) Allows(p module.Page) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.AllowedModules, p)
}

// DisplayName is the full name, or the username when no name is set.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.FullName != "" {
		return i.FullName
	}
	return i.Username
}

// Clone returns a deep copy.
func (i Identity) Clone() Identity {
	i.AllowedModules = slices.Clone(i.AllowedModules)
	return i
}
