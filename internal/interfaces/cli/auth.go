package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/interfaces/di"
)

// NewAuthCommand creates the auth subcommand
func NewAuthCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API session",
		Long:  `Obtain and inspect the OAuth token used for courier API requests.`,
	}

	cmd.AddCommand(newAuthLoginCommand(container))
	cmd.AddCommand(newAuthStatusCommand(container))

	return cmd
}

// newAuthLoginCommand creates the auth login subcommand
func newAuthLoginCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Obtain a token with the configured credentials",
		Long: `Authenticate against the courier API now instead of on first use,
so credential problems surface immediately. The token is persisted and
reused by later commands until it expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := container.Client()
			if err != nil {
				return err
			}

			record, err := apiClient.Login(cmd.Context())
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Printf("✅ Authenticated successfully\n")
			fmt.Printf("🔑 Token: %s\n", maskToken(record.AccessToken))
			fmt.Printf("⏳ Expires: %s (%s from now)\n",
				record.ExpiresAt.Format(time.RFC1123),
				record.TimeUntilExpiry().Round(time.Second))
			return nil
		},
	}
}

// newAuthStatusCommand creates the auth status subcommand
func newAuthStatusCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		Long:  `Display the held token, its expiry, and whether a refresh token is available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := container.Client()
			if err != nil {
				return err
			}

			record, err := apiClient.TokenStatus(cmd.Context())
			if err != nil {
				if errors.Is(err, domain.ErrCacheMiss) {
					fmt.Printf("❌ No token yet\n")
					fmt.Printf("   Run 'pathao auth login' to authenticate\n")
					return nil
				}
				return err
			}

			fmt.Printf("🔑 Token: %s\n", maskToken(record.AccessToken))
			fmt.Printf("🌐 API host: %s\n", container.Config.BaseURL)

			if record.IsExpired() {
				fmt.Printf("⏳ Expired at %s; the next API call renews it\n", record.ExpiresAt.Format(time.RFC1123))
			} else {
				fmt.Printf("⏳ Valid until %s (%s from now)\n",
					record.ExpiresAt.Format(time.RFC1123),
					record.TimeUntilExpiry().Round(time.Second))
			}

			if record.RefreshToken != "" {
				fmt.Printf("🔄 Refresh token available\n")
			}
			return nil
		},
	}
}

// maskToken hides all but the edges of a token for display
func maskToken(token string) string {
	if len(token) <= 10 {
		return "****"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
