package access

import (
	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

// SidebarItem is one entry in the navigation menu.
type SidebarItem struct {
	Page    module.Page  `json:"page"`
	Label   string       `json:"label"`
	NavID   string       `json:"navId"`
	Group   module.Group `json:"group,omitempty"`
	Visible bool         `json:"visible"`
}

// Sidebar is the full menu state for a session.
type Sidebar struct {
	Items  []SidebarItem         `json:"items"`
	Groups map[module.Group]bool `json:"groups"`
}

// BuildSidebar evaluates every page and group for who. A group is shown when
// any of its pages is.
func BuildSidebar(who *identity.Identity) Sidebar {
	sb := Sidebar{Groups: make(map[module.Group]bool)}
	for _, info := range module.Pages() {
		visible := CanAccess(info.Page, who)
		sb.Items = append(sb.Items, SidebarItem{
			Page:    info.Page,
			Label:   info.Label,
			NavID:   info.NavID,
			Group:   info.Group,
			Visible: visible,
		})
		if info.Group != module.GroupNone {
			sb.Groups[info.Group] = sb.Groups[info.Group] || visible
		}
	}
	return sb
}

// HasModules reports whether who has any permitted (non-always-allowed) page.
// Sessions without one land on the welcome view instead of the dashboard.
func HasModules(who *identity.Identity) bool {
	if who.IsAdmin() {
		return true
	}
	return who != nil && len(who.AllowedModules) > 0
}
