package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getportico/portico/session"
)

// ---- Session Commands ----

func sessionCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: portico-cli session verify <token>")
	}

	switch args[0] {
	case "verify":
		if len(args) < 2 {
			return fmt.Errorf("usage: portico-cli session verify <token>")
		}
		return verifyCredential(args[1])
	default:
		return fmt.Errorf("unknown session subcommand: %s", args[0])
	}
}

func verifyCredential(token string) error {
	secret := os.Getenv("PORTICO_SESSION_SECRET")
	if secret == "" {
		return fmt.Errorf("PORTICO_SESSION_SECRET is not set")
	}

	signer := session.NewCredentialSigner(secret, time.Hour)
	claims, err := signer.Verify(token)
	if err != nil {
		return fmt.Errorf("credential is invalid: %w", err)
	}

	fmt.Println("Credential is valid")
	fmt.Printf("  Session:    %s\n", claims.SessionID)
	fmt.Printf("  Subject:    %s\n", claims.Subject)
	if claims.TenantID != "" {
		fmt.Printf("  Tenant:     %s (%s)\n", claims.TenantID, claims.TenantSubdomain)
	}
	if claims.SystemAdmin {
		fmt.Println("  Role:       platform administrator")
	}
	if claims.ExpiresAt != nil {
		fmt.Printf("  Expires:    %s\n", claims.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
