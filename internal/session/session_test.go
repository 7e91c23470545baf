package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trimsdesk/internal/cache"
	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/repository"
)

type fixture struct {
	store   *docstore.Memory
	users   repository.UserRepository
	persist *RedisPersister
	mgr     *Manager
	hook    *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	log, hook := test.NewNullLogger()
	store := docstore.NewMemory()
	users := repository.NewUserRepository(store)
	persist := NewRedisPersister(cache.New(mr.Addr(), "", 0, log), time.Hour)
	mgr := NewManager(users, persist, nil, nil, log)
	t.Cleanup(mgr.Close)
	return &fixture{store: store, users: users, persist: persist, mgr: mgr, hook: hook}
}

func (f *fixture) seed(t *testing.T, u model.User, password string) {
	t.Helper()
	if password != "" {
		hash, err := HashPassword(password)
		require.NoError(t, err)
		u.PasswordHash = hash
	}
	require.NoError(t, f.users.Create(context.Background(), &u))
}

func recv(t *testing.T, ch <-chan identity.Identity) identity.Identity {
	t.Helper()
	select {
	case id, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("no identity published")
	}
	return identity.Identity{}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "alice", Role: "user", FullName: "Alice", AllowedModules: []module.Page{module.Booking}}, "pw")

	s, err := f.mgr.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
	assert.True(t, s.Syncing())

	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, []module.Page{module.Booking}, id.AllowedModules)
	assert.Equal(t, model.DefaultZoom, id.ZoomLevel)

	rec, err := f.persist.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Alice", rec.FullName)

	u, err := f.users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, u.IsOnline)
	assert.NotNil(t, u.LastLogin)
}

func TestLogin_WrongPasswordIsGeneric(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "alice", Role: "user"}, "pw")

	_, wrongPw := f.mgr.Login(context.Background(), "alice", "nope")
	_, noUser := f.mgr.Login(context.Background(), "mallory", "pw")

	assert.ErrorIs(t, wrongPw, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, apperrors.ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())
	assert.Equal(t, "Invalid username or password.", wrongPw.Error())

	_, ok := f.mgr.Get("alice")
	assert.False(t, ok)
	rec, _ := f.persist.Load(context.Background(), "alice")
	assert.Nil(t, rec)
}

func TestLogin_MigratesLegacyPassword(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "old", Role: "user", LegacyPassword: "plain"}, "")

	_, err := f.mgr.Login(context.Background(), "old", "plain")
	require.NoError(t, err)

	doc, err := f.store.Get(context.Background(), module.UsersCollection, "old")
	require.NoError(t, err)
	_, hasPlain := doc.Get("password")
	assert.False(t, hasPlain)
	assert.NotEmpty(t, doc.String("passwordHash"))

	require.NoError(t, f.mgr.Logout(context.Background(), "old"))
	_, err = f.mgr.Login(context.Background(), "old", "plain")
	assert.NoError(t, err)
}

func TestLogin_Throttled(t *testing.T) {
	f := newFixture(t)
	f.mgr.throttle = NewThrottle(2)

	for i := 0; i < 2; i++ {
		_, err := f.mgr.Login(context.Background(), "alice", "x")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}
	_, err := f.mgr.Login(context.Background(), "alice", "x")
	assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	u, err := f.mgr.Register(context.Background(), Registration{Username: "bob", Password: "pw", FullName: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "user", u.Role)
	assert.False(t, u.IsApproved)
	assert.Empty(t, u.AllowedModules)

	_, err = f.mgr.Register(context.Background(), Registration{Username: "bob", Password: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)

	_, err = f.mgr.Login(context.Background(), "bob", "pw")
	assert.NoError(t, err)
}

func TestSync_PropagatesPermissionChange(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "alice", Role: "user", AllowedModules: []module.Page{module.Booking}}, "pw")
	s, err := f.mgr.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := s.Watch(ctx)

	require.NoError(t, f.users.Update(context.Background(), "alice", map[string]any{
		"allowedModules": []string{"reportPage"},
		"role":           "admin",
	}))

	id := recv(t, updates)
	assert.Equal(t, identity.RoleAdmin, id.Role)
	assert.Equal(t, []module.Page{module.Report}, id.AllowedModules)
	assert.Equal(t, identity.RoleAdmin, s.Identity().Role)

	assert.Eventually(t, func() bool {
		rec, _ := f.persist.Load(context.Background(), "alice")
		return rec != nil && rec.Role == identity.RoleAdmin
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSync_MissingRecordKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "alice", Role: "user", AllowedModules: []module.Page{module.Booking}}, "pw")
	s, err := f.mgr.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(context.Background(), "alice"))

	assert.Eventually(t, func() bool {
		for _, e := range f.hook.AllEntries() {
			if e.Message == "user record missing, keeping last session data" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	require.NotNil(t, s.Identity())
	assert.Equal(t, []module.Page{module.Booking}, s.Identity().AllowedModules)
}

func TestStartSync_Guard(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "alice", Role: "user"}, "pw")
	s, err := f.mgr.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.False(t, s.StartSync(context.Background()))
	assert.Equal(t, 1, f.store.Subscribers(module.UsersCollection))

	again, err := f.mgr.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, f.store.Subscribers(module.UsersCollection))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "alice", Role: "user"}, "pw")
	s, err := f.mgr.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	updates := s.Watch(context.Background())

	require.NoError(t, f.mgr.Logout(context.Background(), "alice"))

	assert.Equal(t, LoggedOut, s.State())
	assert.Nil(t, s.Identity())
	_, open := <-updates
	assert.False(t, open)
	assert.Eventually(t, func() bool {
		return f.store.Subscribers(module.UsersCollection) == 0
	}, 2*time.Second, 10*time.Millisecond)

	rec, _ := f.persist.Load(context.Background(), "alice")
	assert.Nil(t, rec)
	u, _ := f.users.FindByUsername(context.Background(), "alice")
	assert.False(t, u.IsOnline)
	assert.False(t, s.StartSync(context.Background()))
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	f.seed(t, model.User{Username: "alice", Role: "user", AllowedModules: []module.Page{module.Report}}, "pw")
	require.NoError(t, f.persist.Save(context.Background(), Record{
		Username:       "alice",
		Role:           identity.RoleUser,
		AllowedModules: []module.Page{module.Report},
	}))

	s, err := f.mgr.Restore(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
	assert.True(t, s.Syncing())

	_, err = f.mgr.Restore(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestSync_FollowsRecordWithoutUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, module.UsersCollection, "carol", map[string]any{
		"password":       "plain",
		"role":           "user",
		"allowedModules": []string{string(module.Booking)},
	}))

	s, err := f.mgr.Login(ctx, "carol", "plain")
	require.NoError(t, err)
	require.Equal(t, []module.Page{module.Booking}, s.Identity().AllowedModules)

	require.NoError(t, f.users.Update(ctx, "carol", map[string]any{"allowedModules": []string{}}))

	assert.Eventually(t, func() bool {
		id := s.Identity()
		return id != nil && len(id.AllowedModules) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRestore_DeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.persist.Save(ctx, Record{Username: "bob", Role: identity.RoleUser}))

	_, err := f.mgr.Restore(ctx, "bob")
	assert.ErrorIs(t, err, apperrors.ErrNoSession)

	rec, err := f.persist.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRevokeUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, model.User{Username: "bob", Role: "user", AllowedModules: []module.Page{module.Booking}}, "pw")
	s, err := f.mgr.Login(ctx, "bob", "pw")
	require.NoError(t, err)
	require.NoError(t, f.users.Delete(ctx, "bob"))

	require.NoError(t, f.mgr.RevokeUser(ctx, "bob"))

	assert.Equal(t, LoggedOut, s.State())
	_, ok := f.mgr.Get("bob")
	assert.False(t, ok)
	rec, _ := f.persist.Load(ctx, "bob")
	assert.Nil(t, rec)
	_, err = f.mgr.Restore(ctx, "bob")
	assert.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestThrottle_BoundsTrackedUsernames(t *testing.T) {
	th := NewThrottle(5)
	for i := 0; i < maxTracked+50; i++ {
		assert.True(t, th.Allow(fmt.Sprintf("spray-%d", i)))
	}
	assert.Equal(t, maxTracked, th.Tracked())

	th.Reset("spray-0")
	th.Reset(fmt.Sprintf("spray-%d", maxTracked+49))
	assert.Equal(t, maxTracked-1, th.Tracked())
	assert.Nil(t, NewThrottle(0))
	assert.True(t, (*Throttle)(nil).Allow("anyone"))
}
