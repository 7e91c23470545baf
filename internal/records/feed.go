package records

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/docstore"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
	"trimsdesk/internal/tenancy"
)

// Feed is a live subscription on one collection. It keeps the last good
// snapshot when the store reports an error.
type Feed struct {
	store module.Store
	path  string
	sub   *docstore.Subscription
	done  chan struct{}

	mu      sync.RWMutex
	docs    []docstore.Document
	ready   bool
	lastErr error
	updated time.Time
	changed chan struct{}
}

// FeedSnapshot is what a view renders from a feed.
type FeedSnapshot struct {
	Store     module.Store        `json:"store"`
	Path      string              `json:"path"`
	Docs      []docstore.Document `json:"docs"`
	Ready     bool                `json:"ready"`
	Stale     bool                `json:"stale"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func (l *Layer) openFeed(ctx context.Context, s module.Store, path string) (*Feed, error) {
	sub, err := l.store.Subscribe(ctx, docstore.Query{Path: path})
	if err != nil {
		return nil, err
	}
	f := &Feed{store: s, path: path, sub: sub, done: make(chan struct{}), changed: make(chan struct{})}
	log := l.log.WithFields(logrus.Fields{"store": string(s), "path": path})
	l.metrics.FeedOpened()

	go func() {
		defer close(f.done)
		defer l.metrics.FeedClosed()
		for snap := range sub.C {
			if snap.Err != nil {
				l.metrics.FeedError(string(s))
				log.WithError(snap.Err).Error("live feed error, keeping last snapshot")
				f.mu.Lock()
				f.lastErr = snap.Err
				f.mu.Unlock()
				continue
			}
			f.mu.Lock()
			f.docs = snap.Docs
			f.ready = true
			f.lastErr = nil
			f.updated = time.Now()
			close(f.changed)
			f.changed = make(chan struct{})
			f.mu.Unlock()
		}
	}()
	return f, nil
}

// Path is the collection the feed follows.
func (f *Feed) Path() string { return f.path }

// Changed returns a channel closed at the next successful update.
func (f *Feed) Changed() <-chan struct{} {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.changed
}

// Snapshot returns the current data as seen by who.
func (f *Feed) Snapshot(who *identity.Identity) FeedSnapshot {
	f.mu.RLock()
	docs := f.docs
	snap := FeedSnapshot{
		Store:     f.store,
		Path:      f.path,
		Ready:     f.ready,
		Stale:     f.lastErr != nil,
		UpdatedAt: f.updated,
	}
	f.mu.RUnlock()

	if ownerScoped(f.store) {
		docs = tenancy.FilterOwned(docs, who)
	}
	snap.Docs = docs
	if snap.Docs == nil {
		snap.Docs = []docstore.Document{}
	}
	return snap
}

func (f *Feed) close() {
	f.sub.Close()
	<-f.done
}
