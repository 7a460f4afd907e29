package tenant

import (
	"errors"
	"strings"
)

// Workspace is one entry from an identifier lookup. Upstream is loose about
// which field names the routable subdomain: some deployments send
// "subdomain", older ones send "slug", and the oldest only send a
// login_url. NormalizeSlug pins down the precedence.
type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Subdomain string `json:"subdomain,omitempty"`
	Slug      string `json:"slug,omitempty"`
	LoginURL  string `json:"login_url,omitempty"`
}

// ErrNoRoutableSlug means none of the three slug sources were present.
// Callers must treat this as a normalization failure, never a silent guess.
var ErrNoRoutableSlug = errors.New("workspace has no subdomain, slug, or parseable login_url")

// NormalizeSlug derives the routable slug for a workspace with explicit
// precedence: the subdomain field, then the slug field, then the first host
// label parsed from login_url.
func NormalizeSlug(w Workspace) (string, error) {
	if w.Subdomain != "" {
		return w.Subdomain, nil
	}
	if w.Slug != "" {
		return w.Slug, nil
	}
	if slug := slugFromLoginURL(w.LoginURL); slug != "" {
		return slug, nil
	}
	return "", ErrNoRoutableSlug
}

// slugFromLoginURL extracts the leading host label from a login URL, e.g.
// "https://acme.example.com/login" → "acme". Returns "" when the URL has no
// subdomain-shaped host.
func slugFromLoginURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")

	// Drop path and port.
	if idx := strings.IndexByte(s, '/'); idx != -1 {
		s = s[:idx]
	}
	if idx := strings.IndexByte(s, ':'); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 || parts[0] == "" {
		return ""
	}
	return parts[0]
}
