// Package tenancy maps logical stores onto physical collection paths and
// applies the row-level ownership convention for shared stores.
package tenancy

import (
	"github.com/sirupsen/logrus"

	"trimsdesk/internal/identity"
	"trimsdesk/internal/module"
)

// UserNamespace is the collection that holds per-user sub-collections.
const UserNamespace = module.UsersCollection

// Resolver resolves store paths. It is pure apart from logging.
type Resolver struct {
	log logrus.FieldLogger
}

// NewResolver returns a Resolver that reports fallbacks to log.
func NewResolver(log logrus.FieldLogger) *Resolver {
	return &Resolver{log: log}
}

// Resolve returns the collection path of store for who. Rules in order:
// shared stores resolve to their root for every role; admins resolve to the
// root for every other store; everyone else gets users/{username}/{root}.
// Admins are not isolated even for personal stores such as my_tasks, so an
// admin's tasks and diary live in the root collections.
//
// Unregistered stores use the raw id as root. A nil identity resolves to the
// unscoped root; callers at the HTTP boundary never pass one.
func (r *Resolver) Resolve(store module.Store, who *identity.Identity) string {
	info, known := store.Lookup()
	if !known {
		r.log.WithField("store", string(store)).Warn("unknown store, using raw id as collection")
	}

	if who == nil {
		r.log.WithField("store", string(store)).Warn("no session, resolving to unscoped root")
		return info.Root
	}
	if info.Scope == module.Shared {
		return info.Root
	}
	if who.IsAdmin() {
		return info.Root
	}
	return UserPath(who.Username, info.Root)
}

// UserPath returns the sub-collection root under username's namespace.
func UserPath(username, root string) string {
	return UserNamespace + "/" + username + "/" + root
}
