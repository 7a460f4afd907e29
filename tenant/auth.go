package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getportico/portico/identity"
)

// ErrInvalidCredentials reports an upstream credential rejection.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticate forwards a credential pair to the directory's login endpoint
// and maps the returned account into a principal. Portico holds no password
// state of its own; the directory is the authentication authority.
func (d *Directory) Authenticate(ctx context.Context, identifier, password string) (*identity.Principal, error) {
	payload, _ := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})

	url := d.baseURL + "/auth/login"
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
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authenticate: %s", upstreamMessage(resp))
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				ID            string `json:"id"`
				TenantID      string `json:"tenant_id"`
				IsSystemAdmin bool   `json:"is_system_admin"`
				Tenant        struct {
					Subdomain string `json:"subdomain"`
				} `json:"tenant"`
				Tenants []struct {
					ID        string `json:"id"`
					Subdomain string `json:"subdomain"`
				} `json:"tenants"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("authenticate: decoding response: %w", err)
	}
	if !body.Success || body.Data.User.ID == "" {
		return nil, ErrInvalidCredentials
	}

	u := body.Data.User
	p := &identity.Principal{
		ID:              u.ID,
		TenantID:        u.TenantID,
		TenantSubdomain: u.Tenant.Subdomain,
		IsSystemAdmin:   u.IsSystemAdmin,
	}
	for _, m := range u.Tenants {
		p.Memberships = append(p.Memberships, identity.Membership{
			TenantID:  m.ID,
			Subdomain: m.Subdomain,
		})
	}
	return p, nil
}
