// Package access decides which pages a session may open and which sidebar
// entries it sees.
package access

import (
	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

// priority is the fixed landing order used when a session must be moved off a page.
var priority = []module.Page{module.Dashboard, module.Booking, module.MyTasks, module.Profile}

// CanAccess reports whether who may open page. A nil identity may open nothing.
func CanAccess(page module.Page, who *identity.Identity) bool {
	if who == nil {
		return false
	}
	info, ok := page.Lookup()
	if !ok {
		return false
	}
	switch info.Access {
	case module.AdminOnly:
		return who.IsAdmin()
	case module.AlwaysAllowed:
		return true
	}
	if who.IsAdmin() {
		return true
	}
	return who.Allows(page)
}

// FirstAccessible returns the highest-priority page who can open. The fixed
// order is tried first, then the allowed module list. It returns false only
// when no page qualifies, which for a valid identity cannot happen since the
// dashboard is always allowed.
func FirstAccessible(who *identity.Identity) (module.Page, bool) {
	if who == nil {
		return "", false
	}
	for _, p := range priority {
		if CanAccess(p, who) {
			return p, true
		}
	}
	for _, p := range who.AllowedModules {
		if CanAccess(p, who) {
			return p, true
		}
	}
	return "", false
}

// Landing returns the page a freshly authenticated session opens: its default
// page when accessible, otherwise FirstAccessible.
func Landing(who *identity.Identity) (module.Page, bool) {
	if who != nil && who.DefaultPage != "" && CanAccess(who.DefaultPage, who) {
		return who.DefaultPage, true
	}
	return FirstAccessible(who)
}
