// Package navigation decides which view a session has open, checks the
// access policy before every switch and ties live data feeds to the open view.
package navigation

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/access"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

// Source is the session a controller follows.
type Source interface {
	Username() string
	Identity() *identity.Identity
	Watch(ctx context.Context) <-chan identity.Identity
}

// Options tune an activation.
type Options struct {
	// PreserveState skips re-initialization when the page is already active.
	PreserveState bool
}

// State is the controller's current view with its live data.
type State struct {
	View        View                   `json:"view"`
	Active      bool                   `json:"active"`
	Initialized int                    `json:"initialized"`
	Feeds       []records.FeedSnapshot `json:"feeds"`
}

// Controller is the navigation state of one session.
type Controller struct {
	src     Source
	views   *ViewLoader
	feeds   *records.FeedSet
	metrics *metrics.Metrics
	log     logrus.FieldLogger

	mu      sync.Mutex
	view    View
	active  module.Page
	inits   int
	handles []*records.Handle
}

// NewController creates a controller whose feeds come from feeds.
func NewController(src Source, views *ViewLoader, feeds *records.FeedSet, m *metrics.Metrics, log logrus.FieldLogger) *Controller {
	return &Controller{
		src:     src,
		views:   views,
		feeds:   feeds,
		metrics: m,
		log:     log.WithFields(logrus.Fields{"component": "navigation", "username": src.Username()}),
	}
}

// Activate switches to page. A page the policy denies leaves everything as it
// was and returns ErrAccessDenied.
func (c *Controller) Activate(page module.Page, opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activate(page, c.src.Identity(), opts)
}

func (c *Controller) activate(page module.Page, who *identity.Identity, opts Options) error {
	if !access.CanAccess(page, who) {
		c.metrics.Denied(string(page))
		c.log.WithField("page", string(page)).Warn("access denied, navigation skipped")
		return fmt.Errorf("activate %s: %w", page, apperrors.ErrAccessDenied)
	}

	if page == c.active {
		if opts.PreserveState {
			return nil
		}
		return c.initialize(page, who)
	}

	view, err := c.views.Load(page, who)
	if err != nil {
		c.log.WithError(err).WithField("page", string(page)).Error("load view")
		return err
	}
	if err := c.initialize(page, who); err != nil {
		return err
	}
	c.view = view
	c.active = page
	c.log.WithField("page", string(page)).Debug("page activated")
	return nil
}

// initialize opens the feeds of page before releasing the old ones so that a
// store shared by both pages keeps its subscription.
func (c *Controller) initialize(page module.Page, who *identity.Identity) error {
	info, _ := page.Lookup()
	next := make([]*records.Handle, 0, len(info.Feeds))
	for _, s := range info.Feeds {
		h, err := c.feeds.Acquire(s, who)
		if err != nil {
			for _, acquired := range next {
				acquired.Release()
			}
			c.log.WithError(err).WithField("store", string(s)).Error("open feed")
			return err
		}
		next = append(next, h)
	}
	for _, h := range c.handles {
		h.Release()
	}
	c.handles = next
	c.inits++
	return nil
}

// Current returns the active view and a snapshot of its feeds.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	who := c.src.Identity()
	st := State{View: c.view, Active: c.active != "", Initialized: c.inits, Feeds: make([]records.FeedSnapshot, 0, len(c.handles))}
	for _, h := range c.handles {
		st.Feeds = append(st.Feeds, h.Feed().Snapshot(who))
	}
	return st
}

// Active returns the active page, or "" before the first activation.
func (c *Controller) Active() module.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// reevaluate applies a new identity: a page that is no longer accessible is
// left for the first accessible one; otherwise feeds are re-resolved and the
// dashboard is refreshed.
func (c *Controller) reevaluate(who identity.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return
	}

	if !access.CanAccess(c.active, &who) {
		target, ok := access.FirstAccessible(&who)
		if !ok {
			c.releaseAll()
			return
		}
		c.log.WithFields(logrus.Fields{"from": string(c.active), "to": string(target)}).Info("access revoked, redirecting")
		if err := c.activate(target, &who, Options{}); err != nil {
			c.log.WithError(err).Error("redirect after access change")
		}
		return
	}

	if c.active == module.Dashboard {
		if view, err := c.views.Load(module.Dashboard, &who); err == nil {
			c.view = view
		}
	}
	if err := c.initialize(c.active, &who); err != nil {
		c.log.WithError(err).Error("refresh feeds after session change")
	}
}

// Run follows the session until ctx ends or the session is closed.
func (c *Controller) Run(ctx context.Context) {
	c.follow(ctx, c.src.Watch(ctx))
}

func (c *Controller) follow(ctx context.Context, updates <-chan identity.Identity) {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case who, ok := <-updates:
			if !ok {
				return
			}
			c.reevaluate(who)
		}
	}
}

func (c *Controller) releaseAll() {
	for _, h := range c.handles {
		h.Release()
	}
	c.handles = nil
	c.active = ""
	c.view = View{}
}

// Close releases every feed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.releaseAll()
	c.mu.Unlock()
	c.feeds.Close()
}
