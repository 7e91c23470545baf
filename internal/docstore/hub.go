package docstore

import (
	"context"
	"sync"
)

// Snapshot is one delivery of a subscription: the full current result set, or
// the error that prevented computing it.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Subscription is a live query. Snapshots arrive on C in emission order; a slow
// reader only ever sees the latest pending snapshot.
type Subscription struct {
	C <-chan Snapshot

	q      Query
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Query returns the query the subscription serves.
func (s *Subscription) Query() Query { return s.q }

// Close stops the subscription and waits until C is closed.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// hub fans change notifications for collection paths out to subscriptions.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan struct{}
	next int
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]chan struct{})}
}

// notify wakes every subscriber of path without blocking.
func (h *hub) notify(paths ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range paths {
		for _, ch := range h.subs[p] {
			select {
			case ch <- struct{}{}:
			default:
				// A wake-up is already pending.
			}
		}
	}
}

func (h *hub) register(path string) (int, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan struct{}, 1)
	if h.subs[path] == nil {
		h.subs[path] = make(map[int]chan struct{})
	}
	h.subs[path][id] = ch
	return id, ch
}

func (h *hub) unregister(path string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[path], id)
	if len(h.subs[path]) == 0 {
		delete(h.subs, path)
	}
}

// count returns the number of live subscriptions on path.
func (h *hub) count(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[path])
}

// watch runs q through load now and on every notification for q.Path.
func (h *hub) watch(ctx context.Context, q Query, load func(context.Context, Query) ([]Document, error)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot, 1)
	sub := &Subscription{C: out, q: q, cancel: cancel, done: make(chan struct{})}

	id, wake := h.register(q.Path)

	go func() {
		defer close(sub.done)
		defer close(out)
		defer h.unregister(q.Path, id)

		emit := func() {
			docs, err := load(ctx, q)
			if ctx.Err() != nil {
				return
			}
			snap := Snapshot{Docs: docs, Err: err}
			// Replace a pending, unread snapshot with the newer one.
			select {
			case out <- snap:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- snap:
				case <-ctx.Done():
				}
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				emit()
			}
		}
	}()

	return sub
}
