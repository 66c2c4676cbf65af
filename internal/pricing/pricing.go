// Package pricing previews prices on the client. The API computes the
// authoritative amounts; nothing here is sent back as a price.
package pricing

import (
	"sort"
	"strings"

	"github.com/safar/flowerstore/internal/config"
	"github.com/safar/flowerstore/internal/models"
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places prices are shown with.
const Places = 3

var hundred = decimal.NewFromInt(100)

// FinalPrice is actual × (1 − offer/100). The offer is clamped to [0, 100].
func FinalPrice(actual, offerPercentage decimal.Decimal) decimal.Decimal {
	offer := clampPercent(offerPercentage)
	return actual.Mul(hundred.Sub(offer)).Div(hundred).Round(Places)
}

// Discount is the amount taken off actual by the offer.
func Discount(actual, offerPercentage decimal.Decimal) decimal.Decimal {
	return actual.Round(Places).Sub(FinalPrice(actual, offerPercentage))
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// DeliveryRates maps delivery areas to fees. Area names match case-insensitively.
type DeliveryRates struct {
	defaultFee decimal.Decimal
	freeOver   decimal.Decimal
	areas      map[string]decimal.Decimal
	names      []string
}

func NewDeliveryRates(cfg config.DeliveryConfig) *DeliveryRates {
	r := &DeliveryRates{
		defaultFee: cfg.DefaultFee,
		freeOver:   cfg.FreeOver,
		areas:      make(map[string]decimal.Decimal, len(cfg.Rates)),
	}
	for area, fee := range cfg.Rates {
		r.areas[normalizeArea(area)] = fee
		r.names = append(r.names, area)
	}
	sort.Strings(r.names)
	return r
}

// Areas lists the configured area names in order.
func (r *DeliveryRates) Areas() []string {
	return append([]string{}, r.names...)
}

// Fee returns the delivery fee for an order of subtotal to area. Orders at or
// above the free-delivery threshold ship free when a threshold is set.
func (r *DeliveryRates) Fee(area string, subtotal decimal.Decimal) decimal.Decimal {
	if r.freeOver.IsPositive() && subtotal.GreaterThanOrEqual(r.freeOver) {
		return decimal.Zero
	}
	if fee, ok := r.areas[normalizeArea(area)]; ok {
		return fee
	}
	return r.defaultFee
}

type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// Quote prices cart items for delivery to area. The discount never exceeds
// the subtotal.
func (r *DeliveryRates) Quote(items []models.CartItem, area string, discount decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	fee := decimal.Zero
	if len(items) > 0 {
		fee = r.Fee(area, subtotal)
	}

	return Quote{
		Subtotal:    subtotal.Round(Places),
		DeliveryFee: fee.Round(Places),
		Discount:    discount.Round(Places),
		Total:       subtotal.Sub(discount).Add(fee).Round(Places),
	}
}

func normalizeArea(area string) string {
	return strings.ToLower(strings.Join(strings.Fields(area), " "))
}
