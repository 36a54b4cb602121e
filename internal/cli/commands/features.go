package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewd-dev/reviewd/internal/client/session"
)

// NewFeaturesCmd creates the features command
func NewFeaturesCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Show the current plan and its feature set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from reviewd.json")

	return cmd
}

func runFeatures(serverAlias string) error {
	c, err := newCore(serverAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if c.sessions.VerifySession(ctx) != session.StatusAuthenticated {
		return fmt.Errorf("not logged in to %s, run 'reviewd login'", c.server.URL)
	}

	profile := c.entitlements.Resolve(ctx)
	if err := c.entitlements.LastError(); err != nil {
		fmt.Printf("⚠ Could not fetch entitlement (%v) - all features read as unavailable\n", err)
		return nil
	}

	fmt.Printf("Plan: %s\n", profile.PlanName)
	if profile.Empty() {
		fmt.Println("  No features included")
		return nil
	}
	for _, name := range profile.Features() {
		fmt.Printf("  ✓ %s\n", name)
	}

	return nil
}
