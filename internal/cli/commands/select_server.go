package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewd-dev/reviewd/internal/cli/config"
	"github.com/reviewd-dev/reviewd/internal/cli/serverselect"
	"github.com/reviewd-dev/reviewd/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ reviewd select-server                          # Interactive selection
  $ reviewd select-server https://api.reviewd.dev  # Select by URL
  $ reviewd select-server production               # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'reviewd init' to create a configuration file", err)
	}

	var server *config.Server

	if urlOrAlias != "" {
		// User provided a URL or alias, find it
		server, err = cfg.GetServerByURL(urlOrAlias)
		if err != nil {
			server, err = cfg.GetServerByAlias(urlOrAlias)
			if err != nil {
				return fmt.Errorf("no server with URL or alias '%s' in %s", urlOrAlias, config.ConfigFileName)
			}
		}
	} else {
		// Show interactive selection
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Printf("Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
