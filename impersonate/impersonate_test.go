package impersonate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/getportico/portico/host"
	"github.com/getportico/portico/identity"
	"github.com/getportico/portico/session"
)

func allowAll(ctx context.Context, operator *identity.Principal, tenantID string) error { return nil }

func newTestHandoff(store session.Store, authorizer Authorizer) (*Handoff, *session.Bridge) {
	signer := session.NewCredentialSigner("test-secret", time.Hour)
	bridge := session.NewBridge(store, signer, "example.com", time.Hour, zap.NewNop())
	urls := host.NewURLBuilder("https", "example.com")
	h := NewHandoff(bridge, authorizer, urls, "/godfather/dashboard", zap.NewNop())
	return h, bridge
}

func operatorSession(t *testing.T, bridge *session.Bridge) (*session.Session, []*http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	sess, err := bridge.Persist(context.Background(), rec, &identity.Principal{
		ID:            "op1",
		IsSystemAdmin: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return sess, rec.Result().Cookies()
}

func echoContext(target string, cookies []*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		if c.Value != "" {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestStart_SetsPairAndNavigates(t *testing.T) {
	store := session.NewMemoryStore()
	h, bridge := newTestHandoff(store, AuthorizerFunc(allowAll))
	sess, _ := operatorSession(t, bridge)

	c, rec := echoContext("https://console.example.com/godfather/tenants", nil)
	if err := h.Start(c, sess, "t5", "acme"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 (full document navigation)", rec.Code)
	}
	loc := rec.Header().Get("Location")
	u, err := url.Parse(loc)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "acme.example.com" || u.Path != "/dashboard" {
		t.Errorf("target = %q, want acme.example.com/dashboard", loc)
	}
	if u.Query().Get(ParamImpersonating) != "true" || u.Query().Get(ParamConsoleSession) != "active" {
		t.Errorf("one-time parameters missing from %q", loc)
	}

	stored, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Impersonating || stored.ImpersonatedTenantID != "t5" {
		t.Errorf("durable pair = (%v, %q), want (true, t5)", stored.Impersonating, stored.ImpersonatedTenantID)
	}
}

func TestStart_AuthorizationRefused(t *testing.T) {
	store := session.NewMemoryStore()
	deny := AuthorizerFunc(func(ctx context.Context, operator *identity.Principal, tenantID string) error {
		return errors.New("not an operator")
	})
	h, bridge := newTestHandoff(store, deny)
	sess, _ := operatorSession(t, bridge)

	c, _ := echoContext("https://console.example.com/godfather/tenants", nil)
	err := h.Start(c, sess, "t5", "acme")

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}

	stored, _ := store.Get(context.Background(), sess.ID)
	if stored.Impersonating {
		t.Error("refused impersonation must not mark the session")
	}
}

func TestStop_ClearsPairAndReturnsToConsole(t *testing.T) {
	store := session.NewMemoryStore()
	h, bridge := newTestHandoff(store, AuthorizerFunc(allowAll))
	sess, _ := operatorSession(t, bridge)

	c, _ := echoContext("https://console.example.com/x", nil)
	if err := h.Start(c, sess, "t5", "acme"); err != nil {
		t.Fatal(err)
	}

	c2, rec := echoContext("https://acme.example.com/dashboard", nil)
	if err := h.Stop(c2, sess); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if loc := rec.Header().Get("Location"); loc != "https://console.example.com/godfather/dashboard" {
		t.Errorf("stop target = %q", loc)
	}

	stored, _ := store.Get(context.Background(), sess.ID)
	if stored.Impersonating || stored.ImpersonatedTenantID != "" {
		t.Errorf("pair not cleared: %+v", stored)
	}
}

func TestConsume_CommitsFlagAndStripsParams(t *testing.T) {
	store := session.NewMemoryStore()
	h, bridge := newTestHandoff(store, AuthorizerFunc(allowAll))
	sess, cookies := operatorSession(t, bridge)

	c0, _ := echoContext("https://console.example.com/x", nil)
	if err := h.Start(c0, sess, "t5", "acme"); err != nil {
		t.Fatal(err)
	}

	// The arrival on the tenant host, carrying the one-time parameters.
	c, rec := echoContext("https://acme.example.com/dashboard?impersonating=true&console_session=active&tab=agents", cookies)
	next := func(c echo.Context) error { return c.String(http.StatusOK, "dashboard") }

	if err := h.ConsumeMiddleware(next)(c); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302 replace-style scrub", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/dashboard") {
		t.Errorf("scrubbed target = %q, want same path", loc)
	}
	if strings.Contains(loc, "impersonating") || strings.Contains(loc, "console_session") {
		t.Errorf("one-time parameters not stripped: %q", loc)
	}
	if !strings.Contains(loc, "tab=agents") {
		t.Errorf("unrelated query parameters must survive the scrub: %q", loc)
	}

	stored, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Impersonating {
		t.Error("durable impersonation flag not committed")
	}
}

func TestConsume_NoParamsPassesThrough(t *testing.T) {
	store := session.NewMemoryStore()
	h, _ := newTestHandoff(store, AuthorizerFunc(allowAll))

	c, rec := echoContext("https://acme.example.com/dashboard", nil)
	next := func(c echo.Context) error { return c.String(http.StatusOK, "dashboard") }

	if err := h.ConsumeMiddleware(next)(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "dashboard" {
		t.Errorf("request without handoff params must pass through untouched")
	}
}

func TestConsume_ParamWithoutPendingImpersonationScrubsOnly(t *testing.T) {
	store := session.NewMemoryStore()
	h, bridge := newTestHandoff(store, AuthorizerFunc(allowAll))
	sess, cookies := operatorSession(t, bridge)

	c, rec := echoContext("https://acme.example.com/dashboard?impersonating=true", cookies)
	next := func(c echo.Context) error { return c.String(http.StatusOK, "dashboard") }

	if err := h.ConsumeMiddleware(next)(c); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusFound {
		t.Errorf("scrub redirect still expected, got %d", rec.Code)
	}

	stored, _ := store.Get(context.Background(), sess.ID)
	if stored.Impersonating || stored.ImpersonatedTenantID != "" {
		t.Error("partial pair committed from an unsolicited handoff parameter")
	}
}
