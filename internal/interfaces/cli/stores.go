package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parceldesk/pathao-go/internal/core/domain"
	"github.com/parceldesk/pathao-go/internal/interfaces/di"
)

// StoreCreateFlags holds command-line flags for the stores create command
type StoreCreateFlags struct {
	Name             string
	ContactName      string
	ContactNumber    string
	SecondaryContact string
	OTPNumber        string
	Address          string
	City             string
	Zone             string
	Area             string
}

// NewStoresCommand creates the stores subcommand
func NewStoresCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "Manage merchant stores",
		Long:  `Create pickup stores and list the ones registered to the merchant account.`,
	}

	cmd.AddCommand(newStoresCreateCommand(container))
	cmd.AddCommand(newStoresListCommand(container))

	return cmd
}

// newStoresCreateCommand creates the stores create subcommand
func newStoresCreateCommand(container *di.Container) *cobra.Command {
	flags := &StoreCreateFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new pickup store",
		Long: `Register a pickup store with the courier. City, zone, and area are
given by name and matched case-insensitively against the location
directory; the names must exist in the hierarchy city > zone > area.`,
		Example: `  pathao stores create \
    --name "Uttara Outlet" \
    --contact-name "Rahim Uddin" \
    --contact-number 01712345678 \
    --address "House 12, Road 4, Sector 10, Uttara, Dhaka" \
    --city Dhaka --zone Uttara --area "Sector 10"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoresCreate(cmd, container, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Name, "name", "", "Store name (3-50 characters)")
	cmd.Flags().StringVar(&flags.ContactName, "contact-name", "", "Contact person name (3-50 characters)")
	cmd.Flags().StringVar(&flags.ContactNumber, "contact-number", "", "Contact phone number (11 digits)")
	cmd.Flags().StringVar(&flags.SecondaryContact, "secondary-contact", "", "Secondary phone number (optional)")
	cmd.Flags().StringVar(&flags.OTPNumber, "otp-number", "", "Phone number for delivery OTPs (optional)")
	cmd.Flags().StringVar(&flags.Address, "address", "", "Full street address (15-120 characters)")
	cmd.Flags().StringVar(&flags.City, "city", "", "City name")
	cmd.Flags().StringVar(&flags.Zone, "zone", "", "Zone name within the city")
	cmd.Flags().StringVar(&flags.Area, "area", "", "Area name within the zone")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("contact-name")
	cmd.MarkFlagRequired("contact-number")
	cmd.MarkFlagRequired("address")
	cmd.MarkFlagRequired("city")
	cmd.MarkFlagRequired("zone")
	cmd.MarkFlagRequired("area")

	return cmd
}

// runStoresCreate executes the stores create command
func runStoresCreate(cmd *cobra.Command, container *di.Container, flags *StoreCreateFlags) error {
	apiClient, err := container.Client()
	if err != nil {
		return err
	}

	input := &domain.StoreCreate{
		Name:             flags.Name,
		ContactName:      flags.ContactName,
		ContactNumber:    flags.ContactNumber,
		SecondaryContact: flags.SecondaryContact,
		OTPNumber:        flags.OTPNumber,
		Address:          flags.Address,
		CityName:         flags.City,
		ZoneName:         flags.Zone,
		AreaName:         flags.Area,
	}

	store, err := apiClient.CreateStore(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("store creation failed: %w", err)
	}

	fmt.Printf("✅ Store created\n")
	fmt.Printf("🏬 ID:      %d\n", store.ID)
	fmt.Printf("   Name:    %s\n", store.Name)
	fmt.Printf("   Contact: %s (%s)\n", store.ContactName, store.ContactNumber)
	fmt.Printf("   Address: %s\n", store.Address)
	return nil
}

// newStoresListCommand creates the stores list subcommand
func newStoresListCommand(container *di.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered stores",
		Long:  `List the stores registered to the merchant account. Results are cached briefly, so a store created elsewhere may take up to a minute to appear.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoresList(cmd, container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of stores to return (0 for the server default)")

	return cmd
}

// runStoresList executes the stores list command
func runStoresList(cmd *cobra.Command, container *di.Container, limit int) error {
	apiClient, err := container.Client()
	if err != nil {
		return err
	}

	stores, err := apiClient.ListStores(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list stores: %w", err)
	}

	if len(stores) == 0 {
		fmt.Println("No stores registered yet.")
		fmt.Println("Run 'pathao stores create' to register one.")
		return nil
	}

	fmt.Printf("Stores (%d):\n\n", len(stores))

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCONTACT\tPHONE\tADDRESS")
	fmt.Fprintln(w, "--\t----\t-------\t-----\t-------")

	for _, store := range stores {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			store.ID,
			store.Name,
			store.ContactName,
			store.ContactNumber,
			store.Address,
		)
	}

	w.Flush()
	return nil
}
