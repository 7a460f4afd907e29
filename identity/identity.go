// Package identity defines the principal snapshot carried by a session.
//
// The principal is owned by the authentication flow that issued the
// credential; everything in this package is read-only to the access guard
// and the routing layer.
package identity

// Principal is the authenticated subject as seen at the edge.
type Principal struct {
	ID              string       `json:"id"`
	TenantID        string       `json:"tenant_id"`
	TenantSubdomain string       `json:"tenant_subdomain,omitempty"`
	IsSystemAdmin   bool         `json:"is_system_admin"`
	Memberships     []Membership `json:"memberships,omitempty"`
}

// Membership is one tenant the principal belongs to.
type Membership struct {
	TenantID  string `json:"tenant_id"`
	Subdomain string `json:"subdomain"`
}

// HasTenant reports whether the principal's home tenant or any of its
// memberships match the given tenant id.
func (p *Principal) HasTenant(tenantID string) bool {
	if p == nil {
		return false
	}
	if p.TenantID == tenantID {
		return true
	}
	for _, m := range p.Memberships {
		if m.TenantID == tenantID {
			return true
		}
	}
	return false
}

// SubdomainFor returns the subdomain associated with the given tenant id,
// or the empty string when the principal has no tie to that tenant.
func (p *Principal) SubdomainFor(tenantID string) string {
	if tenantID == p.TenantID {
		return p.TenantSubdomain
	}
	for _, m := range p.Memberships {
		if m.TenantID == tenantID {
			return m.Subdomain
		}
	}
	return ""
}
