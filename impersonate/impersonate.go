// Package impersonate moves a privileged operator session into a target
// tenant context and back.
//
// Crossing into the tenant subdomain is a full document navigation carrying
// one-time query parameters; on arrival those parameters are laundered into
// a durable session flag and stripped from the URL in the same pass, so a
// refresh or back-navigation can never re-trigger the transition and the
// one-time parameters never persist in history.
//
// Trust boundary: the caller of Start is responsible for confirming the
// acting principal has operator capability. This package requests server
// authorization through the injected Authorizer but does not enforce the
// capability itself.
package impersonate

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/getportico/portico/host"
	"github.com/getportico/portico/identity"
	"github.com/getportico/portico/session"
)

// One-time navigation query parameters, consumed then stripped.
const (
	ParamImpersonating  = "impersonating"
	ParamConsoleSession = "console_session"
)

// Authorizer decides whether an operator may impersonate a tenant.
type Authorizer interface {
	AuthorizeImpersonation(ctx context.Context, operator *identity.Principal, tenantID string) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, operator *identity.Principal, tenantID string) error

func (f AuthorizerFunc) AuthorizeImpersonation(ctx context.Context, operator *identity.Principal, tenantID string) error {
	return f(ctx, operator, tenantID)
}

// Handoff performs impersonation transitions over the session bridge.
type Handoff struct {
	bridge      *session.Bridge
	authorizer  Authorizer
	urls        *host.URLBuilder
	consolePath string
	log         *zap.Logger
}

func NewHandoff(bridge *session.Bridge, authorizer Authorizer, urls *host.URLBuilder, consolePath string, log *zap.Logger) *Handoff {
	return &Handoff{
		bridge:      bridge,
		authorizer:  authorizer,
		urls:        urls,
		consolePath: consolePath,
		log:         log,
	}
}

// Start authorizes the impersonation, marks the session, and issues a full
// document navigation to the target tenant's dashboard with the one-time
// handoff parameters.
func (h *Handoff) Start(c echo.Context, sess *session.Session, tenantID, tenantSubdomain string) error {
	ctx := c.Request().Context()

	if err := h.authorizer.AuthorizeImpersonation(ctx, &sess.Principal, tenantID); err != nil {
		h.log.Warn("impersonation authorization refused",
			zap.String("operator", sess.Principal.ID),
			zap.String("tenant", tenantID),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusForbidden, "impersonation not authorized")
	}

	sess.SetImpersonation(tenantID)
	if err := h.bridge.Update(ctx, sess); err != nil {
		return err
	}

	h.log.Info("impersonation started",
		zap.String("operator", sess.Principal.ID),
		zap.String("tenant", tenantID),
		zap.String("subdomain", tenantSubdomain))

	target := h.urls.Subdomain(tenantSubdomain,
		"/dashboard?"+ParamImpersonating+"=true&"+ParamConsoleSession+"=active")
	return c.Redirect(http.StatusFound, target)
}

// Stop clears the impersonation pair and navigates back to the operator
// console dashboard.
func (h *Handoff) Stop(c echo.Context, sess *session.Session) error {
	sess.ClearImpersonation()
	if err := h.bridge.Update(c.Request().Context(), sess); err != nil {
		return err
	}

	h.log.Info("impersonation stopped", zap.String("operator", sess.Principal.ID))
	return c.Redirect(http.StatusFound, h.urls.Console(h.consolePath))
}

// ConsumeMiddleware consumes the one-time handoff parameters on every page
// load: when "impersonating=true" is present, the durable flag is committed
// and the request is redirected (a history replace, never a push) to the
// same path with both parameters stripped. The flag write and the URL scrub
// happen in one pass — a partial application is a defect.
func (h *Handoff) ConsumeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := c.QueryParams()
		if q.Get(ParamImpersonating) != "true" {
			return next(c)
		}

		ctx := c.Request().Context()
		sess, err := h.bridge.Read(ctx, c.Request())
		if err == nil && sess != nil && sess.ImpersonatedTenantID != "" {
			// Re-commit the pair set by Start. The flag and target id are
			// only ever written together; a handoff parameter with no
			// pending target is ignored rather than committed partially.
			sess.SetImpersonation(sess.ImpersonatedTenantID)
			if err := h.bridge.Update(ctx, sess); err != nil {
				h.log.Warn("impersonation flag commit failed", zap.Error(err))
			}
		} else {
			h.log.Warn("handoff parameter without a pending impersonation; scrubbing only")
		}

		stripped := url.Values{}
		for k, vs := range q {
			if k == ParamImpersonating || k == ParamConsoleSession {
				continue
			}
			stripped[k] = vs
		}

		target := c.Request().URL.Path
		if enc := stripped.Encode(); enc != "" {
			target += "?" + enc
		}
		return c.Redirect(http.StatusFound, target)
	}
}
