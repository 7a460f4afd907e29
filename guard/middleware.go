package guard

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/getportico/portico/host"
	"github.com/getportico/portico/session"
	"github.com/getportico/portico/tenant"
)

// Context keys under which the middleware exposes the decision's data to
// the protected subtree.
const (
	ContextKeyTenant  = "portico_tenant"
	ContextKeySession = "portico_session"
)

// SessionSource reads the durable session for a request.
type SessionSource interface {
	Read(ctx context.Context, r *http.Request) (*session.Session, error)
}

// Middleware gates an entire route subtree on the guard's decision. Only
// Allow reaches the wrapped handler; every other decision renders a
// complete self-contained page. Failures are not auto-retried — the user
// triggers a new evaluation by reloading.
type Middleware struct {
	guard    *Guard
	sessions SessionSource
	urls     *host.URLBuilder
	root     string // root domain for host classification
	log      *zap.Logger
}

func NewMiddleware(g *Guard, sessions SessionSource, urls *host.URLBuilder, rootDomain string, log *zap.Logger) *Middleware {
	return &Middleware{
		guard:    g,
		sessions: sessions,
		urls:     urls,
		root:     rootDomain,
		log:      log,
	}
}

// Protect is the echo middleware. It classifies the request host, runs the
// evaluation for tenant hosts, and renders the terminal state.
// Non-tenant hosts (public, console) pass through: their gating is routing
// policy, not tenant access.
func (m *Middleware) Protect(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		hctx := host.Classify(c.Request().Host, m.root)
		if hctx.Kind != host.KindTenant {
			return next(c)
		}

		read := func(ctx context.Context) (*session.Session, error) {
			return m.sessions.Read(ctx, c.Request())
		}

		d := m.guard.Evaluate(c.Request().Context(), hctx.Subdomain, read)
		if d.Kind != Allow {
			m.log.Info("access gated",
				zap.String("subdomain", hctx.Subdomain),
				zap.String("decision", d.Kind.String()))
		}

		switch d.Kind {
		case Allow:
			c.Set(ContextKeyTenant, d.Tenant)
			c.Set(ContextKeySession, d.Session)
			return next(c)

		case VerificationRequired:
			return m.renderPage(c, http.StatusForbidden, "incomplete", pageData{
				Title:      "Workspace Incomplete",
				TenantName: d.Tenant.Name,
				Subdomain:  d.Subdomain,
			})

		case Unauthenticated:
			// In-place login form at the requested URL; never a cross-host
			// redirect.
			return m.renderPage(c, http.StatusOK, "login", pageData{
				Title:      "Sign In",
				TenantName: d.Tenant.Name,
				Subdomain:  d.Subdomain,
			})

		case Denied:
			return m.renderPage(c, http.StatusForbidden, "denied", pageData{
				Title:      "Access Denied",
				TenantName: d.Tenant.Name,
				Subdomain:  d.Subdomain,
			})

		case ResolveFailed:
			return m.renderResolveFailure(c, d)
		}

		// Unreachable with an exhaustive DecisionKind; fail closed anyway.
		return echo.NewHTTPError(http.StatusForbidden)
	}
}

func (m *Middleware) renderResolveFailure(c echo.Context, d Decision) error {
	switch d.FailKind {
	case tenant.KindInvalid, tenant.KindNotFound:
		return m.renderPage(c, http.StatusNotFound, "notfound", pageData{
			Title:     "Workspace not found",
			Subdomain: d.Subdomain,
		})
	case tenant.KindForbidden:
		return m.renderPage(c, http.StatusForbidden, "restricted", pageData{
			Title:     "Workspace Restricted",
			Subdomain: d.Subdomain,
		})
	default:
		// Diagnostic goes to the log for operators, not the page.
		m.log.Error("tenant resolution failed",
			zap.String("subdomain", d.Subdomain),
			zap.String("diagnostic", d.Diagnostic))
		return m.renderPage(c, http.StatusBadGateway, "error", pageData{
			Title:     "Something went wrong",
			Subdomain: d.Subdomain,
		})
	}
}

func (m *Middleware) renderPage(c echo.Context, status int, name string, data pageData) error {
	data.HomeURL = m.urls.Public("/")
	page, err := renderPage(name, data)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.HTML(status, page)
}
