package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/safar/flowerstore/internal/models"
	"github.com/safar/flowerstore/internal/services"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// requireAdmin checks the cached role. The API enforces the real permission.
func (a *app) requireAdmin(write bool) error {
	user := a.auth.User()
	if user == nil || !user.RoleName.IsAdmin() {
		return errors.New("admin session required")
	}
	if write && !user.RoleName.CanWrite() {
		return fmt.Errorf("role %s is read-only", user.RoleName)
	}
	return nil
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office operations",
	}

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show store statistics",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireAdmin(false); err != nil {
				return err
			}
			stats, err := a.svc.Admin.Dashboard(cmd.Context())
			if err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Orders:    %s (%s pending)\n", humanize.Comma(stats.TotalOrders), humanize.Comma(stats.PendingOrders))
			fmt.Fprintf(out, "Customers: %s\n", humanize.Comma(stats.TotalCustomers))
			fmt.Fprintf(out, "Products:  %s\n", humanize.Comma(stats.TotalProducts))
			fmt.Fprintf(out, "Revenue:   %s\n", money(stats.TotalRevenue))
			if len(stats.RecentOrders) > 0 {
				fmt.Fprintln(out)
				printOrders(out, stats.RecentOrders)
			}
			return nil
		}),
	}

	var filter services.AdminOrderFilter
	var status string
	orders := &cobra.Command{
		Use:   "orders",
		Short: "List all orders",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireAdmin(false); err != nil {
				return err
			}
			filter.DeliveryStatus = models.DeliveryStatus(strings.ToUpper(status))
			page, err := a.svc.Admin.Orders(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list orders: %w", err)
			}
			printOrders(cmd.OutOrStdout(), page.Content)
			printPageFooter(cmd.OutOrStdout(), page)
			return nil
		}),
	}
	orders.Flags().StringVar(&status, "status", "", "delivery status filter")
	orders.Flags().StringVar(&filter.Search, "search", "", "order number or customer")
	orders.Flags().IntVar(&filter.Page, "page", 0, "zero-based page")
	orders.Flags().IntVar(&filter.Size, "size", 20, "page size")

	setStatus := &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order along its delivery track",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireAdmin(true); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			order, err := a.svc.Admin.UpdateDeliveryStatus(cmd.Context(), id, models.DeliveryStatus(strings.ToUpper(args[1])))
			if err != nil {
				return fmt.Errorf("update status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", order.OrderNumber, order.DeliveryStatus)
			return nil
		}),
	}

	var percent string
	discount := &cobra.Command{
		Use:   "discount <category-id>...",
		Short: "Apply an offer percentage to every product in the categories",
		Long: `Applies the offer to each category in turn. Categories that fail are
reported; categories already updated stay updated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireAdmin(true); err != nil {
				return err
			}
			pct, err := decimal.NewFromString(percent)
			if err != nil {
				return fmt.Errorf("invalid --percent %q", percent)
			}
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			result, err := a.svc.Admin.ApplyCategoryDiscount(cmd.Context(), ids, pct)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d succeeded, %d failed\n", result.Succeeded, result.Failed)
			for _, id := range ids {
				if err, failed := result.Errors[id]; failed {
					fmt.Fprintf(out, "  category %d: %v\n", id, err)
				}
			}
			return result.Err()
		}),
	}
	discount.Flags().StringVar(&percent, "percent", "", "offer percentage, 0 to 100")
	_ = discount.MarkFlagRequired("percent")

	cmd.AddCommand(dashboard, orders, setStatus, discount)
	return cmd
}
