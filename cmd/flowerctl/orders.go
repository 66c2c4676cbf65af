package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/services"
	"github.com/spf13/cobra"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage your orders",
	}

	var page apiclient.PageRequest
	list := &cobra.Command{
		Use:   "list",
		Short: "List your orders, newest first",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			orders, err := a.svc.Orders.List(cmd.Context(), page)
			if err != nil {
				return fmt.Errorf("list orders: %w", err)
			}
			printOrders(cmd.OutOrStdout(), orders.Content)
			printPageFooter(cmd.OutOrStdout(), orders)
			return nil
		}),
	}
	list.Flags().IntVar(&page.Page, "page", 0, "zero-based page")
	list.Flags().IntVar(&page.Size, "size", 20, "page size")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			order, err := a.svc.Orders.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get order: %w", err)
			}
			printOrder(cmd.OutOrStdout(), order)
			return nil
		}),
	}

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			order, err := a.svc.Orders.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("get order: %w", err)
			}
			cancelled, err := a.svc.Orders.Cancel(ctx, order)
			if errors.Is(err, services.ErrNotCancellable) {
				return fmt.Errorf("order %s is %s and can no longer be cancelled", order.OrderNumber, order.DeliveryStatus)
			}
			if err != nil {
				return fmt.Errorf("cancel order: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s cancelled\n", cancelled.OrderNumber)
			return nil
		}),
	}

	track := &cobra.Command{
		Use:   "track <order-number>",
		Short: "Track an order by its number",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			order, err := a.svc.Orders.Track(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("track order: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %s\n", order.OrderNumber)
			fmt.Fprintf(out, "Delivery: %s\n", order.DeliveryStatus)
			fmt.Fprintf(out, "Payment:  %s\n", order.PaymentStatus)
			return nil
		}),
	}

	pay := &cobra.Command{
		Use:   "pay <id>",
		Short: "Start payment for an order and print the gateway URL",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			payment, err := a.svc.Payments.Initiate(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("initiate payment: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Amount:  %s\n", money(payment.Amount))
			fmt.Fprintf(out, "Pay at:  %s\n", payment.PaymentURL)
			return nil
		}),
	}

	confirm := &cobra.Command{
		Use:   "confirm-payment <return-url>",
		Short: "Settle a payment from the gateway return URL",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			returnURL, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse return url: %w", err)
			}
			cb, err := services.ParsePaymentCallback(returnURL.Query())
			if err != nil {
				return err
			}
			payment, err := a.svc.Payments.Confirm(cmd.Context(), cb)
			if err != nil {
				return fmt.Errorf("confirm payment: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order %d payment %s\n", payment.OrderID, payment.Status)
			if payment.Message != "" {
				fmt.Fprintln(out, payment.Message)
			}
			return nil
		}),
	}

	cmd.AddCommand(list, show, cancel, track, pay, confirm)
	return cmd
}
