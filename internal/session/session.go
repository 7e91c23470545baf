// Package session owns the authenticated identity of each user: login,
// persistence, and the live sync that follows the user's own record.
package session

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/repository"
)

// State is a step of the session lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Syncing
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Syncing:
		return "syncing"
	case LoggedOut:
		return "logged_out"
	default:
		return "anonymous"
	}
}

// Session is the single owner of one user's identity. Readers get immutable
// snapshots; changes are published to watchers.
type Session struct {
	mu       sync.RWMutex
	state    State
	ident    identity.Identity
	watchers map[int]chan identity.Identity
	nextID   int

	syncCancel context.CancelFunc
	syncDone   chan struct{}

	users   repository.UserRepository
	persist Persister
	log     logrus.FieldLogger
}

func newSession(users repository.UserRepository, persist Persister, log logrus.FieldLogger) *Session {
	return &Session{
		state:    Anonymous,
		watchers: make(map[int]chan identity.Identity),
		users:    users,
		persist:  persist,
		log:      log,
	}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns a snapshot, or nil unless the session is authenticated.
func (s *Session) Identity() *identity.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated && s.state != Syncing {
		return nil
	}
	id := s.ident.Clone()
	return &id
}

// Username is the session's user, also after logout.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ident.Username
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Watch returns a channel that receives every new identity until ctx ends or
// the session logs out. Slow readers only see the latest identity.
func (s *Session) Watch(ctx context.Context) <-chan identity.Identity {
	ch := make(chan identity.Identity, 1)

	s.mu.Lock()
	if s.state == LoggedOut {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if w, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w)
		}
		s.mu.Unlock()
	}()
	return ch
}

// authenticate installs the identity produced by a successful login or restore.
func (s *Session) authenticate(id identity.Identity) {
	s.mu.Lock()
	s.ident = id.Clone()
	s.state = Authenticated
	s.mu.Unlock()
}

// apply overwrites the identity with a newer one from the store, persists it
// and notifies watchers. Unchanged snapshots are dropped.
func (s *Session) apply(ctx context.Context, next identity.Identity) {
	s.mu.Lock()
	if s.state == LoggedOut {
		s.mu.Unlock()
		return
	}
	if sameIdentity(s.ident, next) {
		s.mu.Unlock()
		return
	}
	s.state = Syncing
	s.ident = next.Clone()
	snapshot := s.ident.Clone()
	for _, w := range s.watchers {
		select {
		case <-w:
		default:
		}
		w <- snapshot.Clone()
	}
	s.state = Authenticated
	s.mu.Unlock()

	if err := s.persist.Save(ctx, RecordOf(snapshot)); err != nil {
		s.log.WithError(err).Warn("persist synced session")
	}
	s.log.WithFields(logrus.Fields{
		"role":    snapshot.Role,
		"modules": len(snapshot.AllowedModules),
	}).Info("session synced from user record")
}

// StartSync opens the live subscription on the user's own record. It returns
// false when one is already running.
func (s *Session) StartSync(ctx context.Context) bool {
	s.mu.Lock()
	if s.syncCancel != nil || s.state == LoggedOut {
		s.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.syncCancel = cancel
	s.syncDone = done
	username := s.ident.Username
	s.mu.Unlock()

	sub, err := s.users.Watch(ctx, username)
	if err != nil {
		s.log.WithError(err).Error("subscribe to user record")
		s.mu.Lock()
		s.syncCancel = nil
		s.syncDone = nil
		s.mu.Unlock()
		cancel()
		close(done)
		return false
	}

	go func() {
		defer close(done)
		defer sub.Close()
		for snap := range sub.C {
			if snap.Err != nil {
				s.log.WithError(snap.Err).Error("user record sync failed, keeping last session data")
				continue
			}
			if len(snap.Docs) == 0 {
				s.log.Warn("user record missing, keeping last session data")
				continue
			}
			u, err := repository.DecodeUser(snap.Docs[0])
			if err != nil {
				s.log.WithError(err).Error("decode synced user record")
				continue
			}
			s.apply(ctx, u.Identity())
		}
	}()
	return true
}

// Syncing reports whether the live subscription is running.
func (s *Session) Syncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncCancel != nil
}

// end stops the sync, closes watchers and marks the session logged out.
func (s *Session) end() {
	s.mu.Lock()
	cancel, done := s.syncCancel, s.syncDone
	s.syncCancel, s.syncDone = nil, nil
	s.state = LoggedOut
	for id, w := range s.watchers {
		delete(s.watchers, id)
		close(w)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func sameIdentity(a, b identity.Identity) bool {
	return a.Username == b.Username &&
		a.Role == b.Role &&
		a.FullName == b.FullName &&
		a.DefaultPage == b.DefaultPage &&
		a.ZoomLevel == b.ZoomLevel &&
		a.IsApproved == b.IsApproved &&
		slices.Equal(a.AllowedModules, b.AllowedModules)
}
