package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

// ---- Tenant Commands ----

func (c *CLI) tenantCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: portico-cli tenant <resolve|resend> <subdomain>")
	}

	sub := args[0]
	args = args[1:]

	switch sub {
	case "resolve":
		if len(args) < 1 {
			return fmt.Errorf("usage: portico-cli tenant resolve <subdomain>")
		}
		return c.resolveTenant(args[0])
	case "resend":
		if len(args) < 1 {
			return fmt.Errorf("usage: portico-cli tenant resend <subdomain>")
		}
		return c.resendVerification(args[0])
	default:
		return fmt.Errorf("unknown tenant subcommand: %s", sub)
	}
}

func (c *CLI) resolveTenant(subdomain string) error {
	raw, err := c.get("/tenants/find-by-subdomain/" + subdomain)
	if err != nil {
		return err
	}
	printJSON(raw)
	return nil
}

func (c *CLI) resendVerification(subdomain string) error {
	_, err := c.post("/tenants/resend-verification/"+subdomain, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Verification email queued for %s\n", subdomain)
	return nil
}

func (c *CLI) lookupCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: portico-cli lookup <identifier>")
	}

	raw, err := c.post("/auth/lookup-tenant", map[string]string{"identifier": args[0]})
	if err != nil {
		return err
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Tenants []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Type      string `json:"type"`
			Slug      string `json:"slug"`
			Subdomain string `json:"subdomain"`
		} `json:"tenants"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return err
	}
	if !body.Success {
		fmt.Println(body.Message)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSLUG")
	for _, t := range body.Tenants {
		slug := t.Slug
		if slug == "" {
			slug = t.Subdomain
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Type, slug)
	}
	return w.Flush()
}
