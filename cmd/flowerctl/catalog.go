package main

import (
	"fmt"
	"strings"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/catalog"
	"github.com/safar/flowerstore/internal/services"
	"github.com/spf13/cobra"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	var filter services.ProductFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			page, err := a.svc.Products.List(ctx, filter)
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			printProducts(cmd.OutOrStdout(), page.Content, a.language.Language(ctx))
			printPageFooter(cmd.OutOrStdout(), page)
			return nil
		}),
	}
	list.Flags().Int64Var(&filter.CategoryID, "category", 0, "only this category")
	list.Flags().StringVar(&filter.Search, "search", "", "server-side search")
	list.Flags().BoolVar(&filter.Featured, "featured", false, "only featured products")
	list.Flags().IntVar(&filter.Page, "page", 0, "zero-based page")
	list.Flags().IntVar(&filter.Size, "size", 20, "page size")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.Products.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}

			fmt.Fprintf(out, "%s (%s)\n", productName(p, a.language.Language(ctx)), p.SKU)
			if p.Description != "" {
				fmt.Fprintln(out, p.Description)
			}
			fmt.Fprintf(out, "Price: %s", money(p.FinalPrice))
			if p.OfferPercentage.IsPositive() {
				fmt.Fprintf(out, " (was %s, %s%% off)", money(p.ActualPrice), p.OfferPercentage)
			}
			fmt.Fprintln(out)
			if len(p.Tags) > 0 {
				fmt.Fprintf(out, "Tags: %s\n", strings.Join(p.Tags, ", "))
			}

			reviews, err := a.svc.Reviews.ForProduct(ctx, id, apiclient.PageRequest{Size: 5})
			if err != nil {
				return fmt.Errorf("get reviews: %w", err)
			}
			for _, r := range reviews.Content {
				fmt.Fprintf(out, "  %s %d/5: %s\n", r.UserName, r.Rating, r.Comment)
			}
			return nil
		}),
	}

	var server bool
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search products by name, SKU or tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")

			if server {
				page, err := a.svc.Products.Search(ctx, query, apiclient.PageRequest{Size: 100})
				if err != nil {
					return fmt.Errorf("search products: %w", err)
				}
				printProducts(cmd.OutOrStdout(), page.Content, a.language.Language(ctx))
				return nil
			}

			page, err := a.svc.Products.List(ctx, services.ProductFilter{PageRequest: apiclient.PageRequest{Size: 100}})
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			printProducts(cmd.OutOrStdout(), catalog.Match(page.Content, query), a.language.Language(ctx))
			return nil
		}),
	}
	search.Flags().BoolVar(&server, "server", false, "let the API search instead of matching locally")

	cmd.AddCommand(list, show, search)
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Browse categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			categories, err := a.svc.Categories.List(ctx)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}

			lang := a.language.Language(ctx)
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tPRODUCTS")
			for _, c := range categories {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", c.CategoryID, categoryName(c, lang), c.ProductCount)
			}
			return tw.Flush()
		}),
	})
	return cmd
}
