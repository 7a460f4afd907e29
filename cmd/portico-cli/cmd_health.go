package main

// ---- Health Commands ----

func (c *CLI) healthCommand(args []string) error {
	raw, err := c.get("/health")
	if err != nil {
		return err
	}
	printJSON(raw)
	return nil
}
