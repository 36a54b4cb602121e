package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/reviewd-dev/reviewd/internal/cli/config"
	"github.com/reviewd-dev/reviewd/internal/cli/serverselect"
	"github.com/reviewd-dev/reviewd/internal/client/api"
	"github.com/reviewd-dev/reviewd/internal/client/credentials"
	"github.com/reviewd-dev/reviewd/internal/client/entitlement"
	"github.com/reviewd-dev/reviewd/internal/client/guard"
	"github.com/reviewd-dev/reviewd/internal/client/session"
)

// getSelectedServer loads the project config and resolves which server to
// use. Common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Config, *config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w\nRun 'reviewd init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, nil, err
	}

	if server.URL == "" {
		return nil, nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	return cfg, server, nil
}

// core bundles the client-side authorization components wired for one server
type core struct {
	server       *config.Server
	api          *api.Client
	creds        *credentials.Store
	sessions     *session.Manager
	entitlements *entitlement.Resolver
	guard        *guard.Guard
}

// newCore builds the session manager, entitlement resolver, and route
// guard for the selected server
func newCore(serverAlias string) (*core, error) {
	cfg, server, err := getSelectedServer(serverAlias)
	if err != nil {
		return nil, err
	}

	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	apiClient := api.New(server.URL)

	creds, err := credentials.NewStore(server.URL)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(apiClient, creds, log)

	entitlements := entitlement.NewResolver(func(ctx context.Context) (*api.CompanyProfile, error) {
		token, err := creds.LoadToken()
		if err != nil {
			return nil, err
		}
		return apiClient.CompanyProfile(ctx, token)
	}, sessions, log)

	table := guard.DefaultTable()
	if cfg.RouteTable != "" {
		table, err = guard.LoadTableFile(cfg.RouteTable)
		if err != nil {
			return nil, err
		}
	}

	return &core{
		server:       server,
		api:          apiClient,
		creds:        creds,
		sessions:     sessions,
		entitlements: entitlements,
		guard:        guard.New(table, sessions, entitlements, log),
	}, nil
}
