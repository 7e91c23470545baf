package records

import (
	"context"
	"fmt"
	"sync"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

// FeedSet keeps at most one feed per store for one session. Acquiring a store
// whose resolved path is unchanged reuses the open feed; a changed path tears
// the old feed down before the new one opens.
type FeedSet struct {
	layer *Layer
	ctx   context.Context

	mu     sync.Mutex
	feeds  map[module.Store]*feedEntry
	closed bool
}

type feedEntry struct {
	feed *Feed
	refs int
}

// Handle is a scoped reference to a feed. Release must be called exactly
// once; further calls are ignored.
type Handle struct {
	set   *FeedSet
	store module.Store
	feed  *Feed
	once  sync.Once
}

// NewFeedSet creates an empty set whose feeds live until ctx ends or Close.
func (l *Layer) NewFeedSet(ctx context.Context) *FeedSet {
	return &FeedSet{layer: l, ctx: ctx, feeds: make(map[module.Store]*feedEntry)}
}

// Acquire returns a handle on the live feed of s for who.
func (fs *FeedSet) Acquire(s module.Store, who *identity.Identity) (*Handle, error) {
	path := fs.layer.Path(s, who)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil, fmt.Errorf("feed set closed")
	}

	if e, ok := fs.feeds[s]; ok {
		if e.feed.Path() == path {
			e.refs++
			return &Handle{set: fs, store: s, feed: e.feed}, nil
		}
		delete(fs.feeds, s)
		e.feed.close()
	}

	f, err := fs.layer.openFeed(fs.ctx, s, path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", s, err)
	}
	fs.feeds[s] = &feedEntry{feed: f, refs: 1}
	return &Handle{set: fs, store: s, feed: f}, nil
}

// Feed returns the feed the handle refers to.
func (h *Handle) Feed() *Feed { return h.feed }

// Store returns the logical store of the handle.
func (h *Handle) Store() module.Store { return h.store }

// Release drops the reference; the last release closes the feed.
func (h *Handle) Release() {
	h.once.Do(func() {
		fs := h.set
		fs.mu.Lock()
		defer fs.mu.Unlock()
		e, ok := fs.feeds[h.store]
		if !ok || e.feed != h.feed {
			return
		}
		e.refs--
		if e.refs <= 0 {
			delete(fs.feeds, h.store)
			e.feed.close()
		}
	})
}

// Open lists the path of every open feed.
func (fs *FeedSet) Open() map[module.Store]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make(map[module.Store]string, len(fs.feeds))
	for s, e := range fs.feeds {
		out[s] = e.feed.Path()
	}
	return out
}

// Close tears down every feed. Outstanding handles become no-ops.
func (fs *FeedSet) Close() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.closed = true
	for s, e := range fs.feeds {
		delete(fs.feeds, s)
		e.feed.close()
	}
}
