// Package portico wires the edge gateway's default collaborators together.
// Applications with custom authentication or impersonation policy can skip
// this package and construct the pieces directly.
package portico

import (
	"context"
	"errors"

	"github.com/getportico/portico/api"
	"github.com/getportico/portico/identity"
	"github.com/getportico/portico/impersonate"
	"github.com/getportico/portico/tenant"
)

// DirectoryAuthenticator uses the tenant directory's login endpoint as the
// authentication authority.
func DirectoryAuthenticator(d *tenant.Directory) api.Authenticator {
	return d
}

// SystemAdminAuthorizer permits impersonation only for principals the
// directory marks as platform administrators.
func SystemAdminAuthorizer() impersonate.Authorizer {
	return impersonate.AuthorizerFunc(func(_ context.Context, operator *identity.Principal, _ string) error {
		if operator == nil || !operator.IsSystemAdmin {
			return errors.New("operator is not a platform administrator")
		}
		return nil
	})
}
