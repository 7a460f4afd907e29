// Package host classifies request hostnames for multi-tenant routing.
//
// Every browser document in a Portico deployment lives in exactly one of
// three contexts, determined solely by the hostname it was loaded from:
//
//   - Public: the bare root domain (or its www variant), serving marketing
//     and signup flows.
//   - AdminConsole: the reserved "console" subdomain hosting the operator
//     console.
//   - Tenant: any other subdomain of the root domain, addressing one
//     customer workspace.
//
// Classification is a pure function of (hostname, root domain) and performs
// no I/O, so routing decisions built on it are independently testable.
//
// # Example
//
//	ctx := host.Classify("acme.example.com", "example.com")
//	if ctx.Kind == host.KindTenant {
//	    // ctx.Subdomain == "acme"
//	}
package host

import "strings"

// Kind is the context a hostname resolves to.
type Kind int

const (
	// KindPublic is the bare root domain or its www variant.
	KindPublic Kind = iota

	// KindAdminConsole is the reserved operator console subdomain.
	KindAdminConsole

	// KindTenant is a customer workspace subdomain.
	KindTenant
)

func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindAdminConsole:
		return "admin_console"
	case KindTenant:
		return "tenant"
	}
	return "unknown"
}

// Context is the classification result for a hostname.
// Subdomain is set only when Kind is KindTenant or KindAdminConsole.
type Context struct {
	Kind      Kind
	Subdomain string
}

// ConsoleSubdomain is the reserved operator console label.
const ConsoleSubdomain = "console"

// reservedSubdomains can never address a tenant workspace.
var reservedSubdomains = map[string]bool{
	"console": true,
	"www":     true,
	"api":     true,
	"mail":    true,
	"app":     true,
	"admin":   true,
	"status":  true,
}

// Classify maps a hostname to its routing context.
//
// Rules are applied in order:
//  1. hostname equal to the root domain or "www."+root ⇒ Public.
//  2. hostname starting with "console." ⇒ AdminConsole. This holds even
//     when the root domain configuration is stale or missing, so the
//     operator console is never accidentally lost.
//  3. hostname ending with "."+root, with a prefix other than "www" ⇒
//     Tenant(prefix).
//  4. local-development hostnames containing "localhost": the first label
//     before the first dot is the subdomain, unless the hostname is bare
//     "localhost".
//
// Anything unrecognized falls back to Public.
func Classify(hostname, rootDomain string) Context {
	h := stripPort(hostname)
	root := stripPort(rootDomain)

	// Console fallback first: must survive a bad root domain.
	if strings.HasPrefix(h, ConsoleSubdomain+".") {
		return Context{Kind: KindAdminConsole, Subdomain: ConsoleSubdomain}
	}

	if root != "" {
		if h == root || h == "www."+root {
			return Context{Kind: KindPublic}
		}
		if strings.HasSuffix(h, "."+root) {
			prefix := strings.TrimSuffix(h, "."+root)
			if prefix != "" && prefix != "www" {
				return Context{Kind: KindTenant, Subdomain: prefix}
			}
			return Context{Kind: KindPublic}
		}
	}

	// Local development: subdomain.localhost, bare localhost, 127.0.0.1.
	if strings.Contains(h, "localhost") || h == "127.0.0.1" {
		parts := strings.Split(h, ".")
		if len(parts) >= 2 && parts[0] != "www" && parts[0] != "localhost" && parts[0] != "127" {
			return Context{Kind: KindTenant, Subdomain: parts[0]}
		}
		return Context{Kind: KindPublic}
	}

	return Context{Kind: KindPublic}
}

// Subdomain returns the subdomain label for the hostname, or "" when the
// hostname addresses the bare root domain.
func Subdomain(hostname, rootDomain string) string {
	return Classify(hostname, rootDomain).Subdomain
}

// IsTenantDomain reports whether the hostname addresses a tenant workspace.
// Reserved labels (console, www, api, ...) are never tenants.
func IsTenantDomain(hostname, rootDomain string) bool {
	ctx := Classify(hostname, rootDomain)
	if ctx.Kind != KindTenant {
		return false
	}
	return !reservedSubdomains[ctx.Subdomain]
}

// IsPublicDomain reports whether the hostname addresses the public root.
func IsPublicDomain(hostname, rootDomain string) bool {
	ctx := Classify(hostname, rootDomain)
	return ctx.Kind == KindPublic || ctx.Subdomain == "www"
}

// IsAdminConsoleDomain reports whether the hostname addresses the operator
// console.
func IsAdminConsoleDomain(hostname, rootDomain string) bool {
	return Classify(hostname, rootDomain).Kind == KindAdminConsole
}

// IsReserved reports whether the label is on the fixed reserved list.
func IsReserved(subdomain string) bool {
	return reservedSubdomains[subdomain]
}

// RegistrableRoot returns the shared parent domain for cookie scoping: the
// two rightmost labels of the hostname (e.g. "acme.example.com" →
// "example.com"). Local-development hosts collapse to "localhost", where
// parent-domain cookie scoping is not achievable in modern browsers and
// callers must degrade to host-only cookies.
func RegistrableRoot(hostname string) string {
	h := stripPort(hostname)
	if strings.Contains(h, "localhost") {
		return "localhost"
	}
	if h == "127.0.0.1" {
		return h
	}
	parts := strings.Split(h, ".")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return h
}

func stripPort(hostname string) string {
	if idx := strings.Index(hostname, ":"); idx != -1 {
		return hostname[:idx]
	}
	return hostname
}
