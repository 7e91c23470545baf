package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

func TestUser_Identity(t *testing.T) {
	u := User{
		Username:       "alice",
		Role:           "user",
		AllowedModules: []module.Page{module.Booking, "retiredPage"},
		PasswordHash:   "x",
	}
	id := u.Identity()

	assert.Equal(t, identity.RoleUser, id.Role)
	assert.Equal(t, []module.Page{module.Booking}, id.AllowedModules)
	assert.Equal(t, DefaultZoom, id.ZoomLevel)
}

func TestUser_ViewHidesCredentials(t *testing.T) {
	v := User{Username: "alice", PasswordHash: "hash", LegacyPassword: "pw"}.View()
	assert.Equal(t, "alice", v.Username)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Len(t, s.WhatsApp.Individual, 5)
	assert.Len(t, s.WhatsApp.FullReport, 3)
	assert.Contains(t, s.Dashboard.AvailableYears, "2025")
}
