package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"trimsdesk/internal/docstore"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
	"trimsdesk/internal/tenancy"
)

var (
	alice = &identity.Identity{Username: "alice", FullName: "Alice A", Role: identity.RoleUser, AllowedModules: []module.Page{module.Booking}}
	bob   = &identity.Identity{Username: "bob", Role: identity.RoleUser, AllowedModules: []module.Page{module.Booking}}
	root  = &identity.Identity{Username: "root", FullName: "Root", Role: identity.RoleAdmin}
)

type env struct {
	store *docstore.Memory
	layer *records.Layer
	log   logrus.FieldLogger
	hook  *test.Hook
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log, hook := test.NewNullLogger()
	store := docstore.NewMemory()
	return &env{
		store: store,
		layer: records.NewLayer(store, tenancy.NewResolver(log), nil, log),
		log:   log,
		hook:  hook,
	}
}

func (e *env) seedBuyers(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := e.store.Add(context.Background(), "buyers", map[string]any{"name": n})
		require.NoError(t, err)
	}
}
