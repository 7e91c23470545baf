package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trimsdesk/internal/module"
)

func TestIdentity(t *testing.T) {
	var none *Identity
	assert.False(t, none.IsAdmin())
	assert.False(t, none.Allows(module.Booking))
	assert.Empty(t, none.DisplayName())

	alice := &Identity{Username: "alice", Role: RoleUser, AllowedModules: []module.Page{module.Booking}}
	assert.False(t, alice.IsAdmin())
	assert.True(t, alice.Allows(module.Booking))
	assert.False(t, alice.Allows(module.Report))
	assert.Equal(t, "alice", alice.DisplayName())

	alice.FullName = "Alice Rahman"
	assert.Equal(t, "Alice Rahman", alice.DisplayName())
}

func TestClone_DetachesModules(t *testing.T) {
	orig := Identity{Username: "bob", AllowedModules: []module.Page{module.Booking}}
	cp := orig.Clone()
	cp.AllowedModules[0] = module.Report

	assert.Equal(t, module.Booking, orig.AllowedModules[0])
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, RoleUser, ParseRole("superuser"))
}
