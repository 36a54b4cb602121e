package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/reviewd-dev/reviewd/internal/client/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, magicLink, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Reviewd server",
		Long: `Authenticate with a Reviewd server.

Either with email and password, or by redeeming a one-time magic-link
token received by email (--magic-link).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if magicLink != "" {
				return runMagicLinkLogin(magicLink, serverAlias)
			}
			return runLogin(email, password, serverAlias)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set REVIEWD_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set REVIEWD_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&magicLink, "magic-link", "", "One-time magic-link token to redeem instead of a password")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from reviewd.json")

	return cmd
}

func runLogin(email, password, serverAlias string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("REVIEWD_EMAIL")
	}
	if password == "" {
		password = os.Getenv("REVIEWD_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or REVIEWD_EMAIL env var)")
	}

	c, err := newCore(serverAlias)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or REVIEWD_PASSWORD env var)")
		}
	}

	fmt.Printf("Logging in to %s (%s)...\n", c.server.Alias, c.server.URL)

	identity, err := c.sessions.Login(context.Background(), email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", identity.Name, identity.Email)

	return nil
}

func runMagicLinkLogin(state, serverAlias string) error {
	c, err := newCore(serverAlias)
	if err != nil {
		return err
	}

	fmt.Printf("Redeeming magic link on %s (%s)...\n", c.server.Alias, c.server.URL)

	result := c.sessions.BeginExchange(context.Background(), state)
	if result.Status != session.StatusAuthenticated {
		switch result.Reason {
		case session.ReasonExpiredToken:
			return fmt.Errorf("magic link expired, request a new one")
		case session.ReasonInvalidToken:
			return fmt.Errorf("magic link is invalid or was already used, request a new one")
		default:
			return fmt.Errorf("could not reach the server, try again")
		}
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", result.Identity.Name, result.Identity.Email)

	return nil
}
