package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/locale"
	"github.com/safar/flowerstore/internal/models"
	"github.com/shopspring/decimal"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(3)
}

// productName picks the Arabic name when the session language is Arabic.
func productName(p models.Product, lang string) string {
	if lang == locale.Arabic && p.ProductNameAr != "" {
		return p.ProductNameAr
	}
	return p.ProductName
}

func categoryName(c models.Category, lang string) string {
	if lang == locale.Arabic && c.CategoryNameAr != "" {
		return c.CategoryNameAr
	}
	return c.CategoryName
}

func printProducts(w io.Writer, products []models.Product, lang string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSKU\tPRICE\tOFFER\tFINAL")
	for _, p := range products {
		offer := "-"
		if p.OfferPercentage.IsPositive() {
			offer = p.OfferPercentage.String() + "%"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ProductID, productName(p, lang), p.SKU, money(p.ActualPrice), offer, money(p.FinalPrice))
	}
	tw.Flush()
}

func printPageFooter[T any](w io.Writer, page apiclient.Page[T]) {
	if page.TotalPages > 1 {
		fmt.Fprintf(w, "Page %d of %d (%s results)\n", page.Number+1, page.TotalPages, humanize.Comma(page.TotalElements))
	}
}

func printOrders(w io.Writer, orders []models.Order) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNUMBER\tDELIVERY\tPAYMENT\tTOTAL\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.OrderID, o.OrderNumber, o.DeliveryStatus, o.PaymentStatus, money(o.TotalAmount), humanize.Time(o.CreatedAt))
	}
	tw.Flush()
}

func printOrder(w io.Writer, o models.Order) {
	fmt.Fprintf(w, "Order %s (#%d), placed %s\n", o.OrderNumber, o.OrderID, humanize.Time(o.CreatedAt))
	fmt.Fprintf(w, "Delivery: %s   Payment: %s\n", o.DeliveryStatus, o.PaymentStatus)
	fmt.Fprintf(w, "To: %s %s, %s %s\n\n", o.RecipientName, o.RecipientPhone, o.DeliveryAddress, o.DeliveryArea)

	tw := newTable(w)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tUNIT\tSUBTOTAL")
	for _, item := range o.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", item.ProductName, item.Quantity, money(item.UnitPrice), money(item.Subtotal))
	}
	fmt.Fprintf(tw, "\t\tSubtotal\t%s\n", money(o.Subtotal))
	fmt.Fprintf(tw, "\t\tDelivery\t%s\n", money(o.DeliveryFee))
	if o.DiscountAmount.IsPositive() {
		fmt.Fprintf(tw, "\t\tDiscount\t-%s\n", money(o.DiscountAmount))
	}
	fmt.Fprintf(tw, "\t\tTotal\t%s\n", money(o.TotalAmount))
	tw.Flush()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
