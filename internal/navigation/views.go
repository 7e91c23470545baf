package navigation

import (
	"fmt"
	"io/fs"

	lru "github.com/hashicorp/golang-lru/v2"

	"trimsdesk/internal/access"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/module"
)

// View is the resolved content of a page.
type View struct {
	Page    module.Page `json:"page"`
	Title   string      `json:"title"`
	NavID   string      `json:"navId"`
	Content string      `json:"content"`
}

// ViewLoader reads page views from a filesystem. Every view except the
// dashboard is cached after its first load; the dashboard depends on the
// session and is read on every activation.
type ViewLoader struct {
	fsys    fs.FS
	cache   *lru.Cache[module.Page, View]
	metrics *metrics.Metrics
}

// NewViewLoader creates a loader holding up to size views.
func NewViewLoader(fsys fs.FS, size int, m *metrics.Metrics) (*ViewLoader, error) {
	if size <= 0 {
		size = len(module.Pages())
	}
	cache, err := lru.New[module.Page, View](size)
	if err != nil {
		return nil, fmt.Errorf("view cache: %w", err)
	}
	return &ViewLoader{fsys: fsys, cache: cache, metrics: m}, nil
}

// Load returns the view of page as seen by who.
func (v *ViewLoader) Load(page module.Page, who *identity.Identity) (View, error) {
	info, ok := page.Lookup()
	if !ok {
		return View{}, fmt.Errorf("unknown page %q", page)
	}

	if page == module.Dashboard {
		file, title := info.View, info.Label
		if !access.HasModules(who) {
			file, title = module.HomeView, module.HomeLabel
		}
		return v.read(info, file, title)
	}

	if cached, ok := v.cache.Get(page); ok {
		v.metrics.ViewLoad(true)
		return cached, nil
	}
	view, err := v.read(info, info.View, info.Label)
	if err != nil {
		return View{}, err
	}
	v.cache.Add(page, view)
	return view, nil
}

func (v *ViewLoader) read(info module.PageInfo, file, title string) (View, error) {
	v.metrics.ViewLoad(false)
	content, err := fs.ReadFile(v.fsys, file)
	if err != nil {
		return View{}, fmt.Errorf("load view %s: %w", file, err)
	}
	return View{Page: info.Page, Title: title, NavID: info.NavID, Content: string(content)}, nil
}

// Cached reports whether page is in the cache.
func (v *ViewLoader) Cached(page module.Page) bool {
	return v.cache.Contains(page)
}
