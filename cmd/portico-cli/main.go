package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Version is set at build time
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	cli := &CLI{
		BaseURL: getEnv("PORTICO_URL", "http://localhost:8080"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}

	var err error
	switch cmd {
	case "tenant", "tenants":
		err = cli.tenantCommand(args)
	case "lookup":
		err = cli.lookupCommand(args)
	case "session", "sessions":
		err = sessionCommand(args)
	case "host", "hosts":
		err = hostCommand(args)
	case "health":
		err = cli.healthCommand(args)
	case "version":
		fmt.Printf("portico-cli %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println(`portico-cli - Portico edge gateway operations tool

Usage:
  portico-cli <command> [arguments]

Commands:
  tenant resolve <subdomain>   Resolve a workspace through the gateway
  tenant resend <subdomain>    Trigger a verification email resend
  lookup <identifier>          List workspaces for an email or username
  session verify <token>       Verify a session credential locally
  host classify <hostname>     Classify a hostname against the app domain
  health                       Check gateway health
  version                      Print version

Environment:
  PORTICO_URL              Gateway base URL (default http://localhost:8080)
  PORTICO_APP_DOMAIN       App root domain for host classification
  PORTICO_SESSION_SECRET   Secret for local credential verification`)
}
