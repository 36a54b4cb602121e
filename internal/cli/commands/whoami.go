package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewd-dev/reviewd/internal/client/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the verified session identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from reviewd.json")

	return cmd
}

func runWhoami(serverAlias string) error {
	c, err := newCore(serverAlias)
	if err != nil {
		return err
	}

	if hint := c.sessions.Hint(); hint.Authenticated {
		fmt.Printf("Last known session: %s (%s), verifying...\n", hint.Name, hint.Email)
	}

	status := c.sessions.VerifySession(context.Background())
	if status != session.StatusAuthenticated {
		return fmt.Errorf("not logged in to %s, run 'reviewd login'", c.server.URL)
	}

	identity := c.sessions.Identity()
	fmt.Printf("Logged in to %s (%s)\n", c.server.Alias, c.server.URL)
	fmt.Printf("  User:    %s (%s)\n", identity.Name, identity.Email)
	fmt.Printf("  Role:    %s\n", identity.Role)
	fmt.Printf("  Company: %s\n", identity.CompanyID)

	return nil
}
