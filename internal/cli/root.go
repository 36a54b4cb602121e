package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reviewd-dev/reviewd/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "reviewd",
	Short: "Reviewd - Customer review management",
	Long: `Reviewd CLI - Manage sessions and check feature access for your Reviewd workspace.

Authenticate with password or magic-link, inspect the features your company's
plan unlocks, and probe which areas of the product your session can reach.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reviewd version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewFeaturesCmd())
	rootCmd.AddCommand(commands.NewVisitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
