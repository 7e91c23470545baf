package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trimsdesk/internal/docstore"
	"trimsdesk/internal/identity"
)

func sample() []docstore.Document {
	return []docstore.Document{
		{ID: "a1", Data: map[string]any{"createdBy": "alice"}},
		{ID: "b1", Data: map[string]any{"createdBy": "bob"}},
		{ID: "legacy", Data: map[string]any{"bookingNo": "OLD"}},
		{ID: "null", Data: map[string]any{"createdBy": nil}},
		{ID: "a2", Data: map[string]any{"createdBy": "alice"}},
	}
}

func idsOf(ds []docstore.Document) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestFilterOwned(t *testing.T) {
	alice := &identity.Identity{Username: "alice", Role: identity.RoleUser}
	bob := &identity.Identity{Username: "bob", Role: identity.RoleUser}
	admin := &identity.Identity{Username: "root", Role: identity.RoleAdmin}

	assert.Equal(t, []string{"a1", "legacy", "null", "a2"}, idsOf(FilterOwned(sample(), alice)))
	assert.Equal(t, []string{"b1", "legacy", "null"}, idsOf(FilterOwned(sample(), bob)))
	assert.Len(t, FilterOwned(sample(), admin), 5)
}

func TestFilterOwned_Idempotent(t *testing.T) {
	for _, who := range []*identity.Identity{
		{Username: "alice", Role: identity.RoleUser},
		{Username: "carol", Role: identity.RoleUser},
		{Username: "root", Role: identity.RoleAdmin},
	} {
		once := FilterOwned(sample(), who)
		twice := FilterOwned(once, who)
		assert.Equal(t, idsOf(once), idsOf(twice), who.Username)
	}
}

func TestFilterOwned_LegacyRecordsVisibleToEveryone(t *testing.T) {
	legacy := docstore.Document{ID: "legacy", Data: map[string]any{"buyer": "Zara"}}
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		who := &identity.Identity{Username: name, Role: identity.RoleUser}
		assert.True(t, Visible(legacy, who), name)
	}
}

func TestCanModify(t *testing.T) {
	alice := &identity.Identity{Username: "alice", Role: identity.RoleUser}
	admin := &identity.Identity{Username: "root", Role: identity.RoleAdmin}
	bobs := docstore.Document{Data: map[string]any{"createdBy": "bob"}}

	assert.False(t, CanModify(bobs, alice))
	assert.True(t, CanModify(bobs, admin))
	assert.False(t, CanModify(bobs, nil))
}
