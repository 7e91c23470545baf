package tenancy

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

var allStores = []module.Store{
	module.Bookings, module.Buyers, module.EmbReports, module.BuyerNotesStore,
	module.MerchBuyers, module.MerchPackingList, module.MyTasksStore, module.MyDiaryStore,
}

func newResolver() (*Resolver, *test.Hook) {
	log, hook := test.NewNullLogger()
	return NewResolver(log), hook
}

func TestResolve_SharedStoreIgnoresRole(t *testing.T) {
	r, _ := newResolver()
	alice := &identity.Identity{Username: "alice", Role: identity.RoleUser, AllowedModules: []module.Page{module.Booking}}

	assert.Equal(t, "bookings", r.Resolve(module.Bookings, alice))
	assert.Equal(t, "emb job storage", r.Resolve(module.EmbReports, alice))
	assert.Equal(t, "merchandise_items", r.Resolve(module.BuyerNotesStore, alice))
	assert.Equal(t, "buyers", r.Resolve(module.Buyers, alice))
}

func TestResolve_PersonalStoreForUser(t *testing.T) {
	r, _ := newResolver()
	alice := &identity.Identity{Username: "alice", Role: identity.RoleUser}

	assert.Equal(t, "users/alice/personal_tasks", r.Resolve(module.MyTasksStore, alice))
	assert.Equal(t, "users/alice/personal_diary", r.Resolve(module.MyDiaryStore, alice))
	assert.Equal(t, "users/alice/merchandise_buyers", r.Resolve(module.MerchBuyers, alice))
}

func TestResolve_UserScopingProperty(t *testing.T) {
	r, _ := newResolver()
	for _, username := range []string{"alice", "bob", "z.k"} {
		user := &identity.Identity{Username: username, Role: identity.RoleUser}
		admin := &identity.Identity{Username: username, Role: identity.RoleAdmin}
		for _, s := range allStores {
			info, _ := s.Lookup()
			if info.Scope == module.Personal {
				assert.True(t, strings.HasPrefix(r.Resolve(s, user), "users/"+username+"/"), s)
			}
			assert.False(t, strings.HasPrefix(r.Resolve(s, admin), "users/"), s)
		}
	}
}

func TestResolve_AdminBypass(t *testing.T) {
	r, _ := newResolver()
	admin := &identity.Identity{Username: "root", Role: identity.RoleAdmin}
	for _, s := range allStores {
		info, _ := s.Lookup()
		if info.Scope == module.Shared {
			continue
		}
		assert.Equal(t, info.Root, r.Resolve(s, admin), s)
	}
}

func TestResolve_UnknownStoreLogsAndUsesRawID(t *testing.T) {
	r, hook := newResolver()
	alice := &identity.Identity{Username: "alice", Role: identity.RoleUser}
	admin := &identity.Identity{Username: "root", Role: identity.RoleAdmin}

	assert.Equal(t, "users/alice/old_things", r.Resolve(module.Store("old_things"), alice))
	assert.Equal(t, "old_things", r.Resolve(module.Store("old_things"), admin))

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, "old_things", entry.Data["store"])
	}
}

func TestResolve_NoSessionFailsOpen(t *testing.T) {
	r, hook := newResolver()

	assert.Equal(t, "personal_tasks", r.Resolve(module.MyTasksStore, nil))
	assert.Len(t, hook.Entries, 1)
}
