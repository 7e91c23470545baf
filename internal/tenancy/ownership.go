package tenancy

import (
	"trimsdesk/internal/docstore"
	"trimsdesk/internal/identity"
)

// CreatedByField is the document field naming a record's author.
const CreatedByField = "createdBy"

// Owner returns the createdBy value of d, or "" when the record has none.
func Owner(d docstore.Document) string {
	return d.String(CreatedByField)
}

// Visible reports whether who may see d. Admins see everything; other users
// see their own records and records without an author.
func Visible(d docstore.Document, who *identity.Identity) bool {
	if who.IsAdmin() {
		return true
	}
	owner := Owner(d)
	if owner == "" {
		return true
	}
	return who != nil && owner == who.Username
}

// FilterOwned keeps the documents visible to who, in order.
func FilterOwned(docs []docstore.Document, who *identity.Identity) []docstore.Document {
	if who.IsAdmin() {
		return docs
	}
	out := make([]docstore.Document, 0, len(docs))
	for _, d := range docs {
		if Visible(d, who) {
			out = append(out, d)
		}
	}
	return out
}

// CanModify reports whether who may change or delete d. It is the server-side
// counterpart of Visible: the same rule, enforced before writes.
func CanModify(d docstore.Document, who *identity.Identity) bool {
	return who != nil && Visible(d, who)
}
