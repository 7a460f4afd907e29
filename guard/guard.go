// Package guard gates protected tenant content behind resolution,
// verification, authentication and membership checks.
//
// The guard is an explicit state machine:
//
//	Init → Resolving → {VerificationRequired, ResolveFailed}   (terminal)
//	     → CheckingAuth → {Unauthenticated}                    (terminal)
//	     → CheckingMembership → {Denied, Allowed}              (terminal)
//
// Exactly one Decision is produced per evaluation; decisions are mutually
// exclusive and terminal — there is no transition out of a terminal state
// without a full restart of the sequence. Protected content is never
// reachable until Allow: the guard fails closed, and every failure is
// resolved locally into a rendered terminal state rather than propagated.
package guard

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/getportico/portico/session"
	"github.com/getportico/portico/tenant"
)

// DecisionKind enumerates the terminal states.
type DecisionKind int

const (
	// Allow renders the protected subtree.
	Allow DecisionKind = iota

	// VerificationRequired means the workspace owner has not verified the
	// workspace. No authentication check is performed on this path.
	VerificationRequired

	// Unauthenticated means the tenant resolved but no credential is
	// present. The recovery action is an in-place login form, never a
	// cross-host redirect.
	Unauthenticated

	// Denied means a credential is present but belongs to a different
	// tenant.
	Denied

	// ResolveFailed means the tenant could not be resolved; its FailKind
	// distinguishes invalid input, not-found, forbidden, and transport
	// failure.
	ResolveFailed
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case VerificationRequired:
		return "verification_required"
	case Unauthenticated:
		return "unauthenticated"
	case Denied:
		return "denied"
	case ResolveFailed:
		return "resolve_failed"
	}
	return "unknown"
}

// Decision is the terminal outcome of one evaluation.
type Decision struct {
	Kind      DecisionKind
	Subdomain string

	// Tenant is the resolved record. Set for every kind except
	// ResolveFailed.
	Tenant *tenant.Record

	// Session is set only when Kind is Allow.
	Session *session.Session

	// FailKind and Diagnostic are set only when Kind is ResolveFailed.
	// Diagnostic carries the raw upstream message for operators.
	FailKind   tenant.Kind
	Diagnostic string
}

// Resolver fetches a fresh tenant record. Records are never cached across
// evaluations: verification status can change between page loads.
type Resolver interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*tenant.Record, error)
}

// SessionReader reads the durable session, invoked only once resolution and
// the verification check have passed.
type SessionReader func(ctx context.Context) (*session.Session, error)

// Guard evaluates access to a tenant workspace. It is stateless and safe
// for concurrent use.
type Guard struct {
	resolver Resolver
	log      *zap.Logger
}

func New(resolver Resolver, log *zap.Logger) *Guard {
	return &Guard{resolver: resolver, log: log}
}

// Evaluate runs the full resolution sequence for one request:
// resolution → verification check → authentication check → membership
// check. Failures are classified, never retried here; the caller triggers a
// new evaluation by reloading.
func (g *Guard) Evaluate(ctx context.Context, subdomain string, readSession SessionReader) Decision {
	// Init → Resolving. Empty input short-circuits with no network call.
	if subdomain == "" {
		return Decision{Kind: ResolveFailed, FailKind: tenant.KindInvalid}
	}

	rec, err := g.resolver.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return g.classifyResolveFailure(subdomain, err)
	}

	// Resolving → VerificationRequired. Terminal: an unverified workspace
	// can never reach Allow regardless of authentication state, so the
	// authentication check is skipped entirely.
	if rec.RequiresVerification {
		return Decision{Kind: VerificationRequired, Subdomain: subdomain, Tenant: rec}
	}

	// Resolving → CheckingAuth.
	sess, err := readSession(ctx)
	if err != nil {
		g.log.Debug("session read failed, treating as unauthenticated",
			zap.String("subdomain", subdomain), zap.Error(err))
		sess = nil
	}
	if sess == nil || sess.Expired() || sess.Principal.ID == "" {
		return Decision{Kind: Unauthenticated, Subdomain: subdomain, Tenant: rec}
	}

	// CheckingAuth → CheckingMembership.
	if !g.authorized(sess, rec) {
		g.log.Info("tenant membership mismatch",
			zap.String("subdomain", subdomain),
			zap.String("principal_tenant", sess.Principal.TenantID),
			zap.String("resolved_tenant", rec.ID))
		return Decision{Kind: Denied, Subdomain: subdomain, Tenant: rec}
	}

	return Decision{Kind: Allow, Subdomain: subdomain, Tenant: rec, Session: sess}
}

// authorized implements the membership rule: the principal's home tenant
// must match the resolved tenant, unless the principal is a system admin or
// is actively impersonating that tenant. The membership list exists for
// lookup and routing; holding a membership elsewhere does not open this
// workspace until the session is switched to it.
func (g *Guard) authorized(sess *session.Session, rec *tenant.Record) bool {
	p := &sess.Principal
	if p.IsSystemAdmin {
		return true
	}
	if sess.Impersonating && sess.ImpersonatedTenantID == rec.ID {
		return true
	}
	return p.TenantID == rec.ID
}

func (g *Guard) classifyResolveFailure(subdomain string, err error) Decision {
	var rerr *tenant.ResolveError
	if errors.As(err, &rerr) {
		return Decision{
			Kind:       ResolveFailed,
			Subdomain:  subdomain,
			FailKind:   rerr.Kind,
			Diagnostic: rerr.Diagnostic,
		}
	}
	return Decision{
		Kind:       ResolveFailed,
		Subdomain:  subdomain,
		FailKind:   tenant.KindOther,
		Diagnostic: err.Error(),
	}
}

// Sequence binds evaluations to one browsing context, where a new page
// load supersedes any still-running evaluation. A completion that arrives
// after a newer evaluation has started is discarded rather than allowed to
// commit a stale decision.
type Sequence struct {
	guard *Guard
	gen   atomic.Uint64
}

func NewSequence(g *Guard) *Sequence {
	return &Sequence{guard: g}
}

// Evaluate runs one generation of the sequence. The second return value is
// false when this evaluation was superseded while in flight; the decision
// must then be discarded.
func (s *Sequence) Evaluate(ctx context.Context, subdomain string, readSession SessionReader) (Decision, bool) {
	gen := s.gen.Add(1)
	d := s.guard.Evaluate(ctx, subdomain, readSession)
	if s.gen.Load() != gen {
		return Decision{}, false
	}
	return d, true
}
