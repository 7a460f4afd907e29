// Package routing computes the post-login destination for a principal.
//
// Crossing a subdomain boundary always needs a full document load: that is
// the point at which the root-domain cookie — not any in-process session
// state — becomes the authority for the new origin. The triggering
// condition (a subdomain mismatch) is a pure function, separate from the
// navigation side effect, so it can be tested on its own.
package routing

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/getportico/portico/host"
	"github.com/getportico/portico/identity"
)

// DestinationKind says how the navigation must be performed.
type DestinationKind int

const (
	// Local stays on the current origin; an in-app navigation suffices.
	Local DestinationKind = iota

	// FullNavigation crosses a subdomain boundary and requires a full
	// document load.
	FullNavigation
)

// Destination is where a freshly validated principal should land.
type Destination struct {
	Kind DestinationKind

	// Path for Local destinations; absolute URL for FullNavigation.
	Target string
}

// Decide computes the destination after credential validation:
//
//  1. A system admin anywhere but the admin console goes to the console
//     host root.
//  2. A principal whose tenant subdomain differs from the current host's
//     subdomain goes to their tenant host root.
//  3. Otherwise the principal is already home: in-app navigation to "/".
func Decide(p *identity.Principal, current host.Context, urls *host.URLBuilder) Destination {
	if p.IsSystemAdmin && current.Kind != host.KindAdminConsole {
		return Destination{Kind: FullNavigation, Target: urls.Console("/")}
	}

	if p.TenantSubdomain != "" && p.TenantSubdomain != current.Subdomain {
		return Destination{Kind: FullNavigation, Target: urls.Subdomain(p.TenantSubdomain, "/")}
	}

	return Destination{Kind: Local, Target: "/"}
}

// Apply issues the navigation for a destination: a 302 for a boundary
// crossing, an in-app path response otherwise.
func Apply(c echo.Context, d Destination) error {
	if d.Kind == FullNavigation {
		return c.Redirect(http.StatusFound, d.Target)
	}
	return c.JSON(http.StatusOK, map[string]string{"redirect": d.Target})
}
