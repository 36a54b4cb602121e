package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewd-dev/reviewd/internal/client/guard"
)

// NewVisitCmd creates the visit command
func NewVisitCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "visit <path>",
		Short: "Run the route guard for a path and show the access decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisit(args[0], serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from reviewd.json")

	return cmd
}

func runVisit(path, serverAlias string) error {
	c, err := newCore(serverAlias)
	if err != nil {
		return err
	}

	outcome, err := c.guard.CheckRoute(context.Background(), path)
	if err != nil {
		return err
	}

	switch outcome.Decision {
	case guard.DecisionAllow:
		fmt.Printf("✓ %s: access granted\n", outcome.Path)
	case guard.DecisionRedirectToLogin:
		fmt.Printf("→ %s requires login; you would be returned to %s afterwards\n", outcome.Path, outcome.Path)
	case guard.DecisionRedirectToUpgrade:
		fmt.Printf("→ %s requires the %q feature; upgrade your plan to unlock it\n", outcome.Path, outcome.Feature)
	case guard.DecisionLocked:
		fmt.Printf("✗ %s is locked on your plan (%q required)\n", outcome.Path, outcome.Feature)
	default:
		fmt.Printf("… %s: still checking entitlement\n", outcome.Path)
	}

	return nil
}
