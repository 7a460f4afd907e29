package main

import (
	"fmt"
	"os"

	"github.com/getportico/portico/host"
)

// ---- Host Commands ----

func hostCommand(args []string) error {
	if len(args) < 2 || args[0] != "classify" {
		return fmt.Errorf("usage: portico-cli host classify <hostname>")
	}

	root := os.Getenv("PORTICO_APP_DOMAIN")
	if root == "" {
		root = "localhost"
	}

	hc := host.Classify(args[1], root)
	switch hc.Kind {
	case host.KindPublic:
		fmt.Println("public")
	case host.KindAdminConsole:
		fmt.Println("admin console")
	case host.KindTenant:
		fmt.Printf("tenant workspace (subdomain %q)\n", hc.Subdomain)
		if host.IsReserved(hc.Subdomain) {
			fmt.Println("warning: subdomain is reserved and will not resolve")
		}
	}
	return nil
}
