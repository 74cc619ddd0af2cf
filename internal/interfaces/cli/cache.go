package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parceldesk/pathao-go/internal/interfaces/di"
)

// NewCacheCommand creates the cache subcommand
func NewCacheCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local cache",
		Long: `The location directory is cached on disk so repeated runs do not
re-download it. These commands show what is held and let you discard it.`,
	}

	cmd.AddCommand(newCacheStatsCommand(container))
	cmd.AddCommand(newCacheCleanupCommand(container))
	cmd.AddCommand(newCacheClearCommand(container))

	return cmd
}

// newCacheStatsCommand creates the cache stats subcommand
func newCacheStatsCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the in-memory indexes currently hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := container.Client()
			if err != nil {
				return err
			}

			stats := apiClient.CacheStats()

			fmt.Printf("📋 Cache statistics\n")
			fmt.Printf("   Cities indexed: %d\n", stats.CitiesCached)
			fmt.Printf("   Zones indexed:  %d\n", stats.ZonesCached)
			fmt.Printf("   Areas indexed:  %d\n", stats.AreasCached)
			if stats.CitiesLoaded {
				fmt.Printf("   City list loaded for this process\n")
			} else {
				fmt.Printf("   City list not loaded yet; it is fetched on first use\n")
			}
			return nil
		},
	}
}

// newCacheCleanupCommand creates the cache cleanup subcommand
func newCacheCleanupCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired entries from the cache file",
		Long: `Expired entries are normally skipped on read and overwritten on the
next fetch. Cleanup reclaims their space eagerly, which matters only
when the cache file has grown large.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := container.Client()
			if err != nil {
				return err
			}

			removed, err := apiClient.CleanupCache(cmd.Context())
			if err != nil {
				return fmt.Errorf("cache cleanup failed: %w", err)
			}

			if removed == 0 {
				fmt.Println("✅ Nothing to clean up")
			} else {
				fmt.Printf("✅ Removed %d expired entries\n", removed)
			}
			return nil
		},
	}
}

// newCacheClearCommand creates the cache clear subcommand
func newCacheClearCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard all cached reference data",
		Long: `Drop the cached location directory and store listings. The next
command that needs them downloads fresh copies. Persisted login tokens
are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := container.Client()
			if err != nil {
				return err
			}

			if err := apiClient.ClearCache(cmd.Context()); err != nil {
				return fmt.Errorf("cache clear failed: %w", err)
			}

			fmt.Println("✅ Cache cleared")
			return nil
		},
	}
}
