// Package tenant resolves customer workspaces by subdomain.
//
// Resolution is an unauthenticated lookup against the upstream tenant
// directory. The guard fetches a fresh record on every pass — verification
// status can change between page loads, so records are never cached across
// navigations.
//
// Resolution failures carry an explicit kind so callers can map them to
// distinct terminal states instead of a single generic error:
//
//	rec, err := dir.FindBySubdomain(ctx, "acme")
//	var rerr *ResolveError
//	if errors.As(err, &rerr) && rerr.Kind == KindNotFound {
//	    // render "workspace not found"
//	}
package tenant

import "fmt"

// Workspace types.
const (
	TypePersonal     = "personal"
	TypeOrganization = "organization"
)

// Record is the public tenant record as returned by the directory.
// Immutable from the edge's perspective.
type Record struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Type                 string `json:"type"`
	Subdomain            string `json:"subdomain"`
	RequiresVerification bool   `json:"requires_verification"`
}

// Kind classifies a resolution failure.
type Kind int

const (
	// KindInvalid means the subdomain input was empty or malformed; no
	// network call was made.
	KindInvalid Kind = iota

	// KindNotFound means the directory has no workspace for the subdomain.
	KindNotFound

	// KindForbidden means the directory explicitly denied the lookup.
	KindForbidden

	// KindOther covers transport failures and unclassified upstream errors.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	}
	return "other"
}

// ResolveError is a classified resolution failure. Diagnostic carries the
// raw upstream message for operators; it is never shown to end users.
type ResolveError struct {
	Kind       Kind
	Subdomain  string
	Diagnostic string
}

func (e *ResolveError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("tenant resolve %s: %s: %s", e.Subdomain, e.Kind, e.Diagnostic)
	}
	return fmt.Sprintf("tenant resolve %s: %s", e.Subdomain, e.Kind)
}
