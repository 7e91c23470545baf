package navigation

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/metrics"
	"trimsdesk/internal/records"
)

// Registry owns one running Controller per username.
type Registry struct {
	views   *ViewLoader
	layer   *records.Layer
	metrics *metrics.Metrics
	log     logrus.FieldLogger

	root   context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	ctrls map[string]*running
}

type running struct {
	ctrl   *Controller
	src    Source
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(views *ViewLoader, layer *records.Layer, m *metrics.Metrics, log logrus.FieldLogger) *Registry {
	root, cancel := context.WithCancel(context.Background())
	return &Registry{
		views:   views,
		layer:   layer,
		metrics: m,
		log:     log,
		root:    root,
		cancel:  cancel,
		ctrls:   make(map[string]*running),
	}
}

// For returns the controller of src, starting it on first use. A new session
// object for the same username replaces the old controller.
func (r *Registry) For(src Source) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := src.Username()
	if cur, ok := r.ctrls[name]; ok {
		if cur.src == src {
			return cur.ctrl
		}
		r.stop(name, cur)
	}

	ctx, cancel := context.WithCancel(r.root)
	ctrl := NewController(src, r.views, r.layer.NewFeedSet(ctx), r.metrics, r.log)
	run := &running{ctrl: ctrl, src: src, cancel: cancel, done: make(chan struct{})}
	r.ctrls[name] = run
	updates := src.Watch(ctx)
	go func() {
		defer close(run.done)
		ctrl.follow(ctx, updates)
	}()
	return ctrl
}

// Drop stops the controller of username.
func (r *Registry) Drop(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.ctrls[username]; ok {
		r.stop(username, cur)
	}
}

func (r *Registry) stop(name string, cur *running) {
	delete(r.ctrls, name)
	cur.cancel()
	<-cur.done
}

// Close stops all controllers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, cur := range r.ctrls {
		r.stop(name, cur)
	}
	r.cancel()
}
