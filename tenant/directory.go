package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Directory is the client for the upstream tenant directory API. All
// endpoints it talks to are public and unauthenticated.
type Directory struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger

	mu       sync.Mutex
	inflight map[string]bool // resend-verification calls in flight, by subdomain
}

// DirectoryOption configures the Directory.
type DirectoryOption func(*Directory)

// WithHTTPClient substitutes the underlying HTTP client (tests, custom
// transports).
func WithHTTPClient(c *http.Client) DirectoryOption {
	return func(d *Directory) {
		d.client = c
	}
}

// NewDirectory creates a directory client for the given API base URL.
func NewDirectory(baseURL string, log *zap.Logger, opts ...DirectoryOption) *Directory {
	d := &Directory{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   NewClient(15 * time.Second),
		log:      log,
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// envelope is the upstream response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// FindBySubdomain fetches the public record for a workspace. The error, if
// any, is always a *ResolveError with an explicit kind: 404 → KindNotFound,
// 403 → KindForbidden, anything else → KindOther carrying the raw upstream
// diagnostic.
func (d *Directory) FindBySubdomain(ctx context.Context, subdomain string) (*Record, error) {
	if subdomain == "" {
		return nil, &ResolveError{Kind: KindInvalid, Subdomain: subdomain}
	}

	url := d.baseURL + "/tenants/find-by-subdomain/" + subdomain
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ResolveError{Kind: KindOther, Subdomain: subdomain, Diagnostic: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn("tenant lookup transport failure",
			zap.String("subdomain", subdomain), zap.Error(err))
		return nil, &ResolveError{Kind: KindOther, Subdomain: subdomain, Diagnostic: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ResolveError{Kind: KindNotFound, Subdomain: subdomain}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &ResolveError{Kind: KindForbidden, Subdomain: subdomain}
	case resp.StatusCode != http.StatusOK:
		return nil, &ResolveError{
			Kind:       KindOther,
			Subdomain:  subdomain,
			Diagnostic: upstreamMessage(resp),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &ResolveError{Kind: KindOther, Subdomain: subdomain, Diagnostic: err.Error()}
	}

	var rec Record
	raw := env.Data
	if len(raw) == 0 {
		return nil, &ResolveError{Kind: KindNotFound, Subdomain: subdomain}
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &ResolveError{Kind: KindOther, Subdomain: subdomain, Diagnostic: err.Error()}
	}
	if rec.Subdomain == "" {
		rec.Subdomain = subdomain
	}

	return &rec, nil
}

// ErrResendInFlight is returned when a resend-verification call for the
// same subdomain has not completed yet. Rate limiting is the server's
// concern; the client's only obligation is to keep the triggering control
// disabled while a call is in flight.
var ErrResendInFlight = fmt.Errorf("resend verification already in flight")

// ResendVerification asks the directory to re-send the workspace owner's
// verification email. Idempotent and safe to invoke repeatedly.
func (d *Directory) ResendVerification(ctx context.Context, subdomain string) error {
	d.mu.Lock()
	if d.inflight[subdomain] {
		d.mu.Unlock()
		return ErrResendInFlight
	}
	d.inflight[subdomain] = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.inflight, subdomain)
		d.mu.Unlock()
	}()

	url := d.baseURL + "/tenants/resend-verification/" + subdomain
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("resend verification for %s: %s", subdomain, upstreamMessage(resp))
	}
	return nil
}

// LookupByIdentifier finds the workspaces associated with an email or other
// identifier, with each result's routable slug already normalized. Results
// whose slug cannot be derived are dropped and logged rather than guessed.
func (d *Directory) LookupByIdentifier(ctx context.Context, identifier string) ([]Workspace, error) {
	payload, _ := json.Marshal(map[string]string{"identifier": identifier})

	url := d.baseURL + "/auth/lookup-tenant"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// No account found is a normal outcome, not a transport failure.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tenant lookup: %s", upstreamMessage(resp))
	}

	var body struct {
		Success bool        `json:"success"`
		Tenants []Workspace `json:"tenants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := make([]Workspace, 0, len(body.Tenants))
	for _, w := range body.Tenants {
		slug, err := NormalizeSlug(w)
		if err != nil {
			d.log.Warn("workspace with no routable slug dropped",
				zap.String("name", w.Name), zap.Error(err))
			continue
		}
		w.Slug = slug
		out = append(out, w)
	}
	return out, nil
}

func upstreamMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	if len(raw) > 0 {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
