package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/parceldesk/pathao-go/internal/infrastructure/config"
	"github.com/parceldesk/pathao-go/internal/infrastructure/logging"
	"github.com/parceldesk/pathao-go/internal/interfaces/di"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// NewRootCommand builds the base command and its subcommand tree
func NewRootCommand(container *di.Container) *cobra.Command {
	var (
		configPath string
		debugMode  bool
		baseURL    string
	)

	rootCmd := &cobra.Command{
		Use:   "pathao",
		Short: "Pathao Courier merchant tools",
		Long: `Manage Pathao Courier merchant resources from the command line:
authenticate, create and list pickup stores, browse the city/zone/area
hierarchy, and inspect the local reference data cache.

Credentials come from ~/.pathao/config.json (run "pathao init") or from
PATHAO_* environment variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("debug") {
				cfg.Debug = debugMode
			}
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}

			container.Config = cfg
			container.Logger = logging.New(cfg.Debug)
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default is $HOME/.pathao/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Override the API base URL")

	rootCmd.AddCommand(NewInitCommand(container))
	rootCmd.AddCommand(NewAuthCommand(container))
	rootCmd.AddCommand(NewStoresCommand(container))
	rootCmd.AddCommand(NewLocationsCommand(container))
	rootCmd.AddCommand(NewCacheCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the command tree and releases the container before exiting.
// Cancelling ctx aborts whatever API call is in flight.
func Execute(ctx context.Context, container *di.Container) {
	rootCmd := NewRootCommand(container)

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := container.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
