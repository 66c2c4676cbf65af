package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowerctl",
		Short: "Command line client for the flower storefront",
		Long: `flowerctl talks to the flower storefront API. It keeps the session,
cart and language preference in local storage between runs.

	flowerctl login --email you@example.com --password ...
	flowerctl products list --category 1
	flowerctl cart add 12 --qty 2
	flowerctl cart checkout --name Sara --phone +96550000000 --address "Block 1" --area Salmiya
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newSignupCmd(),
		newOTPCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newPasswordCmd(),
		newProductsCmd(),
		newCategoriesCmd(),
		newCartCmd(),
		newOrdersCmd(),
		newLangCmd(),
		newAdminCmd(),
		newMigrateCmd(),
	)
	return root
}
