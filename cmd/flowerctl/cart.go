package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/safar/flowerstore/internal/cart"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	var qty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product at its current price",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			product, err := a.svc.Products.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}
			if !product.IsActive {
				return fmt.Errorf("%s is not available", product.ProductName)
			}

			item := product.CartItem()
			item.Quantity = qty
			if err := a.cart.Add(ctx, item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s; cart has %d item(s)\n", product.ProductName, a.cart.Count())
			return nil
		}),
	}
	add.Flags().IntVar(&qty, "qty", 1, "quantity to add")

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.cart.Remove(cmd.Context(), id)
		}),
	}

	set := &cobra.Command{
		Use:   "set <product-id> <qty>",
		Short: "Set the quantity of a product; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return a.cart.UpdateQuantity(cmd.Context(), id, n)
		}),
	}

	var area string
	var discount string
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart with a delivery quote",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			out := cmd.OutOrStdout()
			items := a.cart.Items()
			if len(items) == 0 {
				fmt.Fprintln(out, "Cart is empty")
				return nil
			}

			off := decimal.Zero
			if discount != "" {
				var err error
				if off, err = decimal.NewFromString(discount); err != nil {
					return fmt.Errorf("invalid discount %q", discount)
				}
			}
			quote := a.rates.Quote(items, area, off)

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tNAME\tQTY\tUNIT\tSUBTOTAL")
			for _, item := range items {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", item.ProductID, item.Name, item.Quantity, money(item.UnitPrice), money(item.Subtotal()))
			}
			fmt.Fprintf(tw, "\t\t\tSubtotal\t%s\n", money(quote.Subtotal))
			fmt.Fprintf(tw, "\t\t\tDelivery\t%s\n", money(quote.DeliveryFee))
			if quote.Discount.IsPositive() {
				fmt.Fprintf(tw, "\t\t\tDiscount\t-%s\n", money(quote.Discount))
			}
			fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", money(quote.Total))
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Prices are a preview; the store confirms the total at checkout.")
			return nil
		}),
	}
	list.Flags().StringVar(&area, "area", "", "delivery area for the fee preview")
	list.Flags().StringVar(&discount, "discount", "", "discount amount to preview")

	empty := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			return a.cart.Clear(cmd.Context())
		}),
	}

	var details cart.CheckoutDetails
	checkout := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			order, err := a.cart.Checkout(cmd.Context(), a.svc.Orders, details)
			if errors.Is(err, cart.ErrEmptyCart) {
				return errors.New("cart is empty; add products first")
			}
			if err != nil {
				return err
			}
			printOrder(cmd.OutOrStdout(), order)
			return nil
		}),
	}
	checkout.Flags().StringVar(&details.RecipientName, "name", "", "recipient name")
	checkout.Flags().StringVar(&details.RecipientPhone, "phone", "", "recipient phone")
	checkout.Flags().StringVar(&details.DeliveryAddress, "address", "", "delivery address")
	checkout.Flags().StringVar(&details.DeliveryArea, "area", "", "delivery area")
	checkout.Flags().StringVar(&details.DeliveryDate, "date", "", "delivery date (YYYY-MM-DD)")
	checkout.Flags().StringVar(&details.GiftMessage, "gift", "", "gift card message")
	_ = checkout.MarkFlagRequired("name")
	_ = checkout.MarkFlagRequired("address")

	cmd.AddCommand(add, remove, set, list, empty, checkout)
	return cmd
}
