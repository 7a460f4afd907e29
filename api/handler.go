// Package api exposes the edge's HTTP surface: tenant resolution for the
// guard's own pages, identifier lookup, login/logout over the session
// bridge, and the impersonation transitions.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/getportico/portico/host"
	"github.com/getportico/portico/identity"
	"github.com/getportico/portico/impersonate"
	"github.com/getportico/portico/routing"
	"github.com/getportico/portico/session"
	"github.com/getportico/portico/tenant"
)

// Authenticator validates credentials against the external authentication
// flow. Portico never sees password policy or MFA — it only carries the
// resulting principal.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, password string) (*identity.Principal, error)
}

type Handler struct {
	directory *tenant.Directory
	bridge    *session.Bridge
	handoff   *impersonate.Handoff
	auth      Authenticator
	urls      *host.URLBuilder
	root      string
	log       *zap.Logger
}

func NewHandler(directory *tenant.Directory, bridge *session.Bridge, handoff *impersonate.Handoff, auth Authenticator, urls *host.URLBuilder, rootDomain string, log *zap.Logger) *Handler {
	return &Handler{
		directory: directory,
		bridge:    bridge,
		handoff:   handoff,
		auth:      auth,
		urls:      urls,
		root:      rootDomain,
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/tenants/find-by-subdomain/:subdomain", h.HandleFindBySubdomain)
	e.POST("/tenants/resend-verification/:subdomain", h.HandleResendVerification)
	e.POST("/auth/lookup-tenant", h.HandleLookupTenant)
	e.POST("/auth/login", h.HandleLogin)
	e.POST("/auth/logout", h.HandleLogout)
	e.POST("/impersonate/start", h.HandleStartImpersonation)
	e.POST("/impersonate/stop", h.HandleStopImpersonation)
}

func (h *Handler) HandleFindBySubdomain(c echo.Context) error {
	rec, err := h.directory.FindBySubdomain(c.Request().Context(), c.Param("subdomain"))
	if err != nil {
		var rerr *tenant.ResolveError
		if errors.As(err, &rerr) {
			switch rerr.Kind {
			case tenant.KindInvalid:
				return h.Error(c, http.StatusBadRequest, "Invalid subdomain", nil)
			case tenant.KindNotFound:
				return h.Error(c, http.StatusNotFound, "Workspace not found", nil)
			case tenant.KindForbidden:
				return h.Error(c, http.StatusForbidden, "Forbidden", nil)
			}
		}
		h.log.Error("tenant lookup failed", zap.Error(err))
		return h.Error(c, http.StatusBadGateway, "Workspace lookup failed", nil)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rec,
	})
}

func (h *Handler) HandleResendVerification(c echo.Context) error {
	err := h.directory.ResendVerification(c.Request().Context(), c.Param("subdomain"))
	if errors.Is(err, tenant.ErrResendInFlight) {
		return h.Error(c, http.StatusTooManyRequests, "A verification email is already being sent", nil)
	}
	if err != nil {
		h.log.Error("resend verification failed", zap.Error(err))
		return h.Error(c, http.StatusBadGateway, "Could not send email. Please try again.", nil)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) HandleLookupTenant(c echo.Context) error {
	var body struct {
		Identifier string `json:"identifier"`
	}
	if err := c.Bind(&body); err != nil || body.Identifier == "" {
		return h.Error(c, http.StatusBadRequest, "Identifier is required", err)
	}

	workspaces, err := h.directory.LookupByIdentifier(c.Request().Context(), body.Identifier)
	if err != nil {
		h.log.Error("tenant lookup failed", zap.Error(err))
		return h.Error(c, http.StatusBadGateway, "Lookup failed", nil)
	}
	if len(workspaces) == 0 {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "No account found.",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"tenants": workspaces,
	})
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Identifier string `json:"identifier" form:"identifier"`
		Password   string `json:"password" form:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}

	p, err := h.auth.Authenticate(c.Request().Context(), body.Identifier, body.Password)
	if err != nil {
		return h.Error(c, http.StatusUnauthorized, "Invalid credentials", nil)
	}

	if _, err := h.bridge.Persist(c.Request().Context(), c.Response(), p); err != nil {
		h.log.Error("session persist failed", zap.Error(err))
		return h.Error(c, http.StatusInternalServerError, "Could not establish session", nil)
	}

	current := host.Classify(c.Request().Host, h.root)
	return routing.Apply(c, routing.Decide(p, current, h.urls))
}

func (h *Handler) HandleLogout(c echo.Context) error {
	// Local state goes first so logout is instant even when the upstream
	// is slow; Clear is idempotent and never fails.
	h.bridge.Clear(c.Request().Context(), c.Response(), c.Request())
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) HandleStartImpersonation(c echo.Context) error {
	sess, err := h.bridge.Read(c.Request().Context(), c.Request())
	if err != nil || sess == nil {
		return h.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
	}

	var body struct {
		TenantID  string `json:"tenant_id" form:"tenant_id"`
		Subdomain string `json:"subdomain" form:"subdomain"`
	}
	if err := c.Bind(&body); err != nil || body.TenantID == "" {
		return h.Error(c, http.StatusBadRequest, "tenant_id is required", err)
	}
	if body.Subdomain == "" {
		// Known tenants can be addressed by id alone.
		body.Subdomain = sess.Principal.SubdomainFor(body.TenantID)
	}
	if body.Subdomain == "" {
		return h.Error(c, http.StatusBadRequest, "subdomain is required", nil)
	}

	return h.handoff.Start(c, sess, body.TenantID, body.Subdomain)
}

func (h *Handler) HandleStopImpersonation(c echo.Context) error {
	sess, err := h.bridge.Read(c.Request().Context(), c.Request())
	if err != nil || sess == nil {
		return h.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
	}
	return h.handoff.Stop(c, sess)
}

// Error renders the uniform error body. Raw diagnostics stay in the log.
func (h *Handler) Error(c echo.Context, code int, message string, err error) error {
	if err != nil {
		h.log.Debug("request error", zap.Int("code", code), zap.Error(err))
	}
	return c.JSON(code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
