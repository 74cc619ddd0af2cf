package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parceldesk/pathao-go/internal/infrastructure/config"
	"github.com/parceldesk/pathao-go/internal/interfaces/di"
)

// InitFlags holds the command-line flags for the init command
type InitFlags struct {
	ConfigPath   string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	BaseURL      string
	Production   bool
}

// NewInitCommand creates the init command
func NewInitCommand(container *di.Container) *cobra.Command {
	flags := &InitFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up merchant credentials and defaults",
		Long: `Set up the configuration file with your merchant API credentials.

Run without flags for an interactive walkthrough, or pass the credentials
as flags for scripted setup. The file is written with owner-only
permissions since it contains secrets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(container, flags)
		},
	}

	cmd.Flags().StringVar(&flags.ConfigPath, "output", "", "Where to write the config file (default is $HOME/.pathao/config.json)")
	cmd.Flags().StringVar(&flags.ClientID, "client-id", "", "Merchant API client ID")
	cmd.Flags().StringVar(&flags.ClientSecret, "client-secret", "", "Merchant API client secret")
	cmd.Flags().StringVar(&flags.Username, "username", "", "Merchant account email")
	cmd.Flags().StringVar(&flags.Password, "password", "", "Merchant account password")
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", "", "API base URL (default is the sandbox)")
	cmd.Flags().BoolVar(&flags.Production, "production", false, "Point at the production API instead of the sandbox")

	return cmd
}

func runInit(container *di.Container, flags *InitFlags) error {
	nonInteractive := flags.ClientID != "" || flags.ClientSecret != "" ||
		flags.Username != "" || flags.Password != ""

	if nonInteractive {
		return runNonInteractiveInit(container, flags)
	}
	return runInteractiveInit(container, flags)
}

func runNonInteractiveInit(container *di.Container, flags *InitFlags) error {
	cfg := container.Config

	if flags.ClientID != "" {
		cfg.ClientID = flags.ClientID
	}
	if flags.ClientSecret != "" {
		cfg.ClientSecret = flags.ClientSecret
	}
	if flags.Username != "" {
		cfg.Username = flags.Username
	}
	if flags.Password != "" {
		cfg.Password = flags.Password
	}
	applyHostFlags(cfg, flags)

	if err := config.NewValidator().ValidateCredentials(cfg.ClientID, cfg.ClientSecret, cfg.Username, cfg.Password); err != nil {
		return fmt.Errorf("incomplete credentials: %w (provide all of --client-id, --client-secret, --username, --password)", err)
	}

	return saveInitConfig(cfg, flags.ConfigPath)
}

func runInteractiveInit(container *di.Container, flags *InitFlags) error {
	fmt.Println("🚀 Pathao Courier CLI Setup")
	fmt.Println("")
	fmt.Println("Enter your merchant API credentials. Values in brackets are kept")
	fmt.Println("when you press Enter.")
	fmt.Println("")

	scanner := bufio.NewScanner(os.Stdin)
	cfg := container.Config
	applyHostFlags(cfg, flags)

	prompt := func(label, current string, required bool) (string, error) {
		if current != "" {
			fmt.Printf("%s [%s]: ", label, mask(current))
		} else {
			fmt.Printf("%s: ", label)
		}
		scanner.Scan()
		value := strings.TrimSpace(scanner.Text())
		if value == "" {
			value = current
		}
		if required && value == "" {
			return "", fmt.Errorf("%s is required", label)
		}
		return value, nil
	}

	var err error
	if cfg.ClientID, err = prompt("Client ID", cfg.ClientID, true); err != nil {
		return err
	}
	if cfg.ClientSecret, err = prompt("Client secret", cfg.ClientSecret, true); err != nil {
		return err
	}
	if cfg.Username, err = prompt("Merchant email", cfg.Username, true); err != nil {
		return err
	}
	if cfg.Password, err = prompt("Password", cfg.Password, true); err != nil {
		return err
	}

	fmt.Printf("API base URL [%s]: ", cfg.BaseURL)
	scanner.Scan()
	if value := strings.TrimSpace(scanner.Text()); value != "" {
		cfg.BaseURL = value
	}

	if err := saveInitConfig(cfg, flags.ConfigPath); err != nil {
		return err
	}

	fmt.Println("")
	fmt.Println("🎉 Ready to go! Try it out:")
	fmt.Println("   pathao auth login")
	fmt.Println("   pathao locations")
	return nil
}

func applyHostFlags(cfg *config.Config, flags *InitFlags) {
	if flags.Production {
		cfg.BaseURL = config.ProductionBaseURL
	}
	if flags.BaseURL != "" {
		cfg.BaseURL = flags.BaseURL
	}
}

func saveInitConfig(cfg *config.Config, path string) error {
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if path == "" {
		path = config.DefaultConfigPath()
	}
	fmt.Printf("✅ Configuration saved to: %s\n", path)
	return nil
}

// mask hides all but the edges of a secret when showing it as a default
func mask(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}
