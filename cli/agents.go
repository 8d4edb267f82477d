package cli

import (
	"fmt"

	"github.com/richinex/supplysentinel/agent"
)

// ListAgents prints the agents of the monitoring pipeline.
func ListAgents(opts Options) {
	out := opts.out()
	roster := agent.Roster()

	fmt.Fprintln(out, "=== SupplySentinel Agents ===")
	fmt.Fprintln(out)
	for i, a := range roster {
		fmt.Fprintf(out, "%d. %s (%s)\n", i+1, a.Name, a.Role)
		fmt.Fprintf(out, "   %s\n", a.Description)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %d agents\n", len(roster))
}
