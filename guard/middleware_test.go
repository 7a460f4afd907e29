package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/getportico/portico/host"
	"github.com/getportico/portico/identity"
	"github.com/getportico/portico/session"
	"github.com/getportico/portico/tenant"
)

type staticSessions struct {
	sess *session.Session
}

func (s *staticSessions) Read(ctx context.Context, r *http.Request) (*session.Session, error) {
	return s.sess, nil
}

func newTestMiddleware(r Resolver, sess *session.Session) *Middleware {
	g := New(r, zap.NewNop())
	urls := host.NewURLBuilder("https", "example.com")
	return NewMiddleware(g, &staticSessions{sess: sess}, urls, "example.com", zap.NewNop())
}

func serve(m *Middleware, target string) *httptest.ResponseRecorder {
	e := echo.New()
	protected := func(c echo.Context) error {
		return c.String(http.StatusOK, "protected content")
	}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := m.Protect(protected)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestProtect_VerificationRequiredPage(t *testing.T) {
	r := &fakeResolver{records: map[string]*tenant.Record{
		"pending-co": {ID: "1", Name: "Pending Co", Subdomain: "pending-co", RequiresVerification: true},
	}}
	m := newTestMiddleware(r, nil)

	rec := serve(m, "https://pending-co.example.com/dashboard")
	body := rec.Body.String()

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(body, "Pending Co") {
		t.Error("page must show the tenant name")
	}
	if !strings.Contains(body, "resend-verification/pending-co") {
		t.Error("page must offer the resend-verification action")
	}
	if strings.Contains(body, "protected content") {
		t.Error("protected subtree leaked through a terminal state")
	}
}

func TestProtect_UnauthenticatedRendersInPlaceLogin(t *testing.T) {
	r := &fakeResolver{records: map[string]*tenant.Record{
		"acme": {ID: "5", Name: "Acme", Subdomain: "acme"},
	}}
	m := newTestMiddleware(r, nil)

	rec := serve(m, "https://acme.example.com/dashboard")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (in-place form)", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("unauthenticated must not redirect, got Location %q", loc)
	}
	if !strings.Contains(rec.Body.String(), "Sign in to Acme") {
		t.Error("expected tenant-scoped login form")
	}
}

func TestProtect_DeniedMentionsTenantName(t *testing.T) {
	r := &fakeResolver{records: map[string]*tenant.Record{
		"acme": {ID: "5", Name: "Acme", Subdomain: "acme"},
	}}
	sess := &session.Session{
		ID:        "s1",
		Principal: identity.Principal{ID: "u1", TenantID: "7"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	m := newTestMiddleware(r, sess)

	rec := serve(m, "https://acme.example.com/dashboard")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Acme") {
		t.Error("denied page must mention the tenant name")
	}
}

func TestProtect_NotFoundPage(t *testing.T) {
	r := &fakeResolver{errs: map[string]error{
		"ghost": &tenant.ResolveError{Kind: tenant.KindNotFound, Subdomain: "ghost"},
	}}
	m := newTestMiddleware(r, nil)

	rec := serve(m, "https://ghost.example.com/dashboard")
	body := rec.Body.String()

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(body, "Workspace not found") {
		t.Error("page must contain 'Workspace not found'")
	}
	if !strings.Contains(body, "ghost") {
		t.Error("page must display the subdomain")
	}
}

func TestProtect_RestrictedWorkspacePage(t *testing.T) {
	r := &fakeResolver{errs: map[string]error{
		"sealed": &tenant.ResolveError{Kind: tenant.KindForbidden, Subdomain: "sealed"},
	}}
	m := newTestMiddleware(r, nil)

	rec := serve(m, "https://sealed.example.com/dashboard")
	body := rec.Body.String()

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(body, "Workspace Restricted") {
		t.Error("page must contain 'Workspace Restricted'")
	}
	if !strings.Contains(body, "sealed") {
		t.Error("page must display the subdomain")
	}
	// The refusal happens before any credential check; the page must not
	// claim the visitor is logged in.
	if strings.Contains(body, "You are logged in") {
		t.Error("restricted page must not assume an authenticated visitor")
	}
}

func TestProtect_TransportFailureHidesDiagnostic(t *testing.T) {
	r := &fakeResolver{errs: map[string]error{
		"acme": &tenant.ResolveError{Kind: tenant.KindOther, Subdomain: "acme", Diagnostic: "connection refused to 10.0.0.8"},
	}}
	m := newTestMiddleware(r, nil)

	rec := serve(m, "https://acme.example.com/dashboard")

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.8") {
		t.Error("raw diagnostic leaked into the user-facing page")
	}
}

func TestProtect_AllowPassesThroughWithContext(t *testing.T) {
	r := &fakeResolver{records: map[string]*tenant.Record{
		"acme": {ID: "5", Name: "Acme", Subdomain: "acme"},
	}}
	sess := &session.Session{
		ID:        "s1",
		Principal: identity.Principal{ID: "u1", TenantID: "5"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	m := newTestMiddleware(r, sess)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "https://acme.example.com/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Protect(func(c echo.Context) error {
		if c.Get(ContextKeyTenant).(*tenant.Record).ID != "5" {
			t.Error("tenant not exposed to protected subtree")
		}
		if c.Get(ContextKeySession).(*session.Session).ID != "s1" {
			t.Error("session not exposed to protected subtree")
		}
		return c.String(http.StatusOK, "protected content")
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "protected content") {
		t.Error("allowed request did not reach the protected handler")
	}
}

func TestProtect_NonTenantHostPassesThrough(t *testing.T) {
	r := &fakeResolver{}
	m := newTestMiddleware(r, nil)

	rec := serve(m, "https://www.example.com/")
	if !strings.Contains(rec.Body.String(), "protected content") {
		t.Error("public host must not be gated by the tenant guard")
	}
	if r.callCount() != 0 {
		t.Error("public host must not trigger resolution")
	}
}
