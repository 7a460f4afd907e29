package host

import "strings"

// URLBuilder constructs absolute URLs for cross-subdomain navigation.
// Crossing a subdomain boundary always requires a full document load, so
// every target is built as an absolute URL under the configured root domain.
// RootDomain may carry a port (local development).
type URLBuilder struct {
	Scheme     string // "http" or "https"
	RootDomain string // e.g. "example.com" or "localhost:8080"
}

// NewURLBuilder returns a builder for the given scheme and root domain.
// An empty scheme defaults to https.
func NewURLBuilder(scheme, rootDomain string) *URLBuilder {
	if scheme == "" {
		scheme = "https"
	}
	return &URLBuilder{Scheme: scheme, RootDomain: rootDomain}
}

// Subdomain returns the absolute URL for a path on the given tenant
// subdomain, e.g. Subdomain("acme", "/dashboard") →
// "https://acme.example.com/dashboard".
func (b *URLBuilder) Subdomain(subdomain, path string) string {
	return b.Scheme + "://" + subdomain + "." + b.RootDomain + normalizePath(path)
}

// Public returns the absolute URL for a path on the bare root domain.
func (b *URLBuilder) Public(path string) string {
	return b.Scheme + "://" + b.RootDomain + normalizePath(path)
}

// Console returns the absolute URL for a path on the operator console host.
func (b *URLBuilder) Console(path string) string {
	return b.Subdomain(ConsoleSubdomain, path)
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
