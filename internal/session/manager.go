package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/repository"
)

// Registration is the input of Register.
type Registration struct {
	Username string
	Password string
	FullName string
}

// Manager holds one Session per logged-in username.
type Manager struct {
	users    repository.UserRepository
	persist  Persister
	throttle *Throttle
	metrics  *metrics.Metrics
	log      logrus.FieldLogger

	// root outlives requests; live syncs run under it.
	root   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. throttle and m may be nil.
func NewManager(users repository.UserRepository, persist Persister, throttle *Throttle, m *metrics.Metrics, log logrus.FieldLogger) *Manager {
	root, cancel := context.WithCancel(context.Background())
	return &Manager{
		users:    users,
		persist:  persist,
		throttle: throttle,
		metrics:  m,
		log:      log.WithField("component", "session"),
		root:     root,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Register creates a pending user with no modules.
func (m *Manager) Register(ctx context.Context, reg Registration) (*model.User, error) {
	username := strings.TrimSpace(reg.Username)
	if username == "" || reg.Password == "" {
		return nil, apperrors.Invalid("Username and password are required.")
	}
	exists, err := m.users.Exists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return nil, apperrors.ErrUsernameTaken
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &model.User{
		Username:       username,
		PasswordHash:   hash,
		FullName:       strings.TrimSpace(reg.FullName),
		Role:           string(identity.RoleUser),
		AllowedModules: []module.Page{},
		IsApproved:     false,
		CreatedAt:      &now,
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	m.log.WithField("username", username).Info("user registered")
	return user, nil
}

// Login authenticates username and returns its live session. Unknown users and
// wrong passwords fail with the same ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if !m.throttle.Allow(username) {
		m.log.WithField("username", username).Warn("login throttled")
		return nil, apperrors.ErrTooManyAttempts
	}

	attempt := newSession(m.users, m.persist, m.log.WithField("username", username))
	attempt.setState(Authenticating)

	user, err := m.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		attempt.setState(Anonymous)
		return nil, fmt.Errorf("load user: %w", err)
	}
	ok := false
	rehash := false
	if user != nil {
		ok, rehash = verify(user, password)
	}
	if !ok {
		attempt.setState(Anonymous)
		m.metrics.LoginFailed()
		m.log.WithField("username", username).Info("login rejected")
		return nil, apperrors.ErrInvalidCredentials
	}
	m.throttle.Reset(username)

	now := time.Now().UTC()
	patch := map[string]any{"lastLogin": now, "isOnline": true}
	if rehash {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		patch["passwordHash"] = hash
		patch["password"] = docstore.DeleteField
	}
	if err := m.users.Update(ctx, username, patch); err != nil {
		m.log.WithError(err).WithField("username", username).Warn("update login stamp")
	}

	id := user.Identity()
	if err := m.persist.Save(ctx, RecordOf(id)); err != nil {
		m.log.WithError(err).WithField("username", username).Warn("persist session")
	}

	m.mu.Lock()
	s, exists := m.sessions[username]
	if !exists {
		attempt.authenticate(id)
		s = attempt
		m.sessions[username] = s
	}
	m.mu.Unlock()

	if exists {
		s.apply(ctx, id)
	} else {
		m.metrics.SessionOpened()
		s.StartSync(m.root)
	}
	m.log.WithFields(logrus.Fields{"username": username, "role": id.Role}).Info("login succeeded")
	return s, nil
}

// Get returns the live session of username.
func (m *Manager) Get(username string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[username]
	return s, ok
}

// Restore returns the live session of username, rebuilding it from the
// persisted record after a restart. A record whose user no longer exists is
// discarded.
func (m *Manager) Restore(ctx context.Context, username string) (*Session, error) {
	if s, ok := m.Get(username); ok {
		return s, nil
	}
	rec, err := m.persist.Load(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec == nil {
		return nil, apperrors.ErrNoSession
	}
	exists, err := m.users.Exists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		m.log.WithField("username", username).Warn("persisted session of a deleted user, clearing")
		if err := m.persist.Clear(ctx, username); err != nil {
			m.log.WithError(err).WithField("username", username).Warn("clear stale session")
		}
		return nil, apperrors.ErrNoSession
	}

	s := newSession(m.users, m.persist, m.log.WithField("username", username))
	s.authenticate(rec.Identity())

	m.mu.Lock()
	if existing, ok := m.sessions[username]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[username] = s
	m.mu.Unlock()

	m.metrics.SessionOpened()
	s.StartSync(m.root)
	m.log.WithField("username", username).Info("session restored")
	return s, nil
}

// Logout ends the session of username and clears its persisted record.
func (m *Manager) Logout(ctx context.Context, username string) error {
	m.mu.Lock()
	s, ok := m.sessions[username]
	delete(m.sessions, username)
	m.mu.Unlock()

	if ok {
		s.end()
		m.metrics.SessionClosed()
	}
	if err := m.persist.Clear(ctx, username); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if err := m.users.Update(ctx, username, map[string]any{"isOnline": false}); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		m.log.WithError(err).WithField("username", username).Warn("clear online flag")
	}
	m.log.WithField("username", username).Info("logged out")
	return nil
}

// Drop ends the in-memory session of username without touching storage. It is
// used when the user record is deleted.
func (m *Manager) Drop(username string) {
	m.mu.Lock()
	s, ok := m.sessions[username]
	delete(m.sessions, username)
	m.mu.Unlock()
	if ok {
		s.end()
		m.metrics.SessionClosed()
	}
}

// RevokeUser ends the session of a deleted user and clears its persisted
// record, so that no later request can restore it.
func (m *Manager) RevokeUser(ctx context.Context, username string) error {
	m.Drop(username)
	if err := m.persist.Clear(ctx, username); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for name, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.end()
		m.metrics.SessionClosed()
	}
	m.cancel()
}
