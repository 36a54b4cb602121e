package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out of the selected Reviewd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from reviewd.json")

	return cmd
}

func runLogout(serverAlias string) error {
	c, err := newCore(serverAlias)
	if err != nil {
		return err
	}

	// Backend invalidation is best-effort; local credentials and the
	// entitlement cache are always dropped.
	c.sessions.Logout(context.Background())
	c.entitlements.Invalidate()

	fmt.Printf("✓ Logged out of %s (%s)\n", c.server.Alias, c.server.URL)
	return nil
}
