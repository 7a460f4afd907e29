package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/getportico/portico/host"
	"github.com/getportico/portico/identity"
)

// Canonical cookie names. Namespaced so the purge list below can never
// collide with application cookies.
const (
	CookieCredential = "portico_auth_token"
	CookieTenantID   = "portico_tenant_id"
)

// legacyCookieNames is the fixed list of alternate and historical key names
// purged on Clear so no stale credential survives a logout.
var legacyCookieNames = []string{
	"auth_token",
	"user",
	"current_tenant_id",
	"is_impersonating",
	"impersonated_tenant_id",
	"XSRF-TOKEN",
	"app_session",
}

// AllCookieNames enumerates every cookie the bridge may ever have written,
// canonical and legacy. "Clear all auth state" iterates exactly this list.
func AllCookieNames() []string {
	names := []string{CookieCredential, CookieTenantID}
	return append(names, legacyCookieNames...)
}

// Bridge persists and clears credential + principal state so it is visible
// from sibling subdomains.
type Bridge struct {
	store      Store
	signer     *CredentialSigner
	rootDomain string // registrable root, e.g. "example.com" or "localhost"
	ttl        time.Duration
	log        *zap.Logger
}

func NewBridge(store Store, signer *CredentialSigner, appDomain string, ttl time.Duration, log *zap.Logger) *Bridge {
	b := &Bridge{
		store:      store,
		signer:     signer,
		rootDomain: host.RegistrableRoot(appDomain),
		ttl:        ttl,
		log:        log,
	}
	if b.localOnly() {
		log.Warn("root-domain cookie scoping unavailable on local host; cross-subdomain session continuity is best-effort",
			zap.String("domain", b.rootDomain))
	}
	return b
}

// localOnly reports whether parent-domain cookie scoping is achievable.
func (b *Bridge) localOnly() bool {
	return strings.Contains(b.rootDomain, "localhost") || b.rootDomain == "127.0.0.1"
}

// Persist creates a durable session for the principal: a store entry for
// the fast path and a credential cookie scoped to the registrable root
// domain with matching expiry, so sibling subdomains observe the same
// session without re-authentication.
func (b *Bridge) Persist(ctx context.Context, w http.ResponseWriter, p *identity.Principal) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.New().String(),
		Principal: *p,
		IssuedAt:  now,
		ExpiresAt: now.Add(b.ttl),
	}

	credential, err := b.signer.Sign(p, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Credential = credential

	if err := b.store.Put(ctx, sess); err != nil {
		return nil, err
	}

	b.setCookie(w, CookieCredential, credential, sess.ExpiresAt)
	if p.TenantID != "" {
		b.setCookie(w, CookieTenantID, p.TenantID, sess.ExpiresAt)
	}

	return sess, nil
}

// Read returns the session for the request, or (nil, nil) when no
// credential is present. The store is the fast path; when it has no entry —
// the first request on a sibling subdomain — the session is rebuilt from
// the verified credential snapshot and re-persisted.
func (b *Bridge) Read(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieCredential)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	claims, err := b.signer.Verify(cookie.Value)
	if err != nil {
		return nil, err
	}

	sess, err := b.store.Get(ctx, claims.SessionID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Cookie is the authority for a new origin: rehydrate the store.
	p := claims.Principal()
	sess = &Session{
		ID:         claims.SessionID,
		Credential: cookie.Value,
		Principal:  p,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if err := b.store.Put(ctx, sess); err != nil {
		b.log.Warn("session rehydration failed", zap.Error(err))
	}
	return sess, nil
}

// Update writes session changes back to the store.
func (b *Bridge) Update(ctx context.Context, sess *Session) error {
	return b.store.Put(ctx, sess)
}

// Clear removes the credential and principal from the store and the
// root-domain cookie, and purges every legacy/alternate key name. It is
// idempotent and never fails: clearing an already-empty session is a no-op.
func (b *Bridge) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieCredential); err == nil && cookie.Value != "" {
		if claims, err := b.signer.Verify(cookie.Value); err == nil {
			if err := b.store.Delete(ctx, claims.SessionID); err != nil {
				b.log.Warn("session store delete failed", zap.Error(err))
			}
		}
	}

	for _, name := range AllCookieNames() {
		b.expireCookie(w, name)
	}
}

func (b *Bridge) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteLaxMode,
	}
	if !b.localOnly() {
		c.Domain = "." + b.rootDomain
		c.Secure = true
	}
	http.SetCookie(w, c)
}

// expireCookie deletes a cookie on both scopes: the current host (no
// Domain attribute) and the registrable root.
func (b *Bridge) expireCookie(w http.ResponseWriter, name string) {
	expired := &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	}
	http.SetCookie(w, expired)

	if !b.localOnly() {
		scoped := *expired
		scoped.Domain = "." + b.rootDomain
		http.SetCookie(w, &scoped)
	}
}
