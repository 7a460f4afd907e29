package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/getportico/portico/identity"
)

// Claims is the principal snapshot embedded in a credential. The snapshot
// is what makes the root-domain cookie self-sufficient: a sibling subdomain
// can rebuild the session from the cookie alone when the store has no entry
// for it yet.
type Claims struct {
	SessionID       string `json:"sid"`
	TenantID        string `json:"tenant_id,omitempty"`
	TenantSubdomain string `json:"tenant_subdomain,omitempty"`
	SystemAdmin     bool   `json:"system_admin,omitempty"`
	jwt.RegisteredClaims
}

// CredentialSigner signs and verifies HS256 session credentials.
type CredentialSigner struct {
	secret []byte
	expiry time.Duration
}

func NewCredentialSigner(secret string, expiry time.Duration) *CredentialSigner {
	return &CredentialSigner{secret: []byte(secret), expiry: expiry}
}

// Sign issues a credential for the principal bound to the session id.
func (cs *CredentialSigner) Sign(p *identity.Principal, sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID:       sessionID,
		TenantID:        p.TenantID,
		TenantSubdomain: p.TenantSubdomain,
		SystemAdmin:     p.IsSystemAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cs.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cs.secret)
}

// Verify parses and validates a credential, returning its claims.
func (cs *CredentialSigner) Verify(credential string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return cs.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid credential claims")
	}
	return claims, nil
}

// Principal rebuilds the principal snapshot carried by the claims.
func (c *Claims) Principal() identity.Principal {
	return identity.Principal{
		ID:              c.Subject,
		TenantID:        c.TenantID,
		TenantSubdomain: c.TenantSubdomain,
		IsSystemAdmin:   c.SystemAdmin,
	}
}
