package pricing

import (
	"testing"

	"github.com/safar/flowerstore/internal/config"
	"github.com/safar/flowerstore/internal/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		actual, offer, want string
	}{
		{"12.000", "25", "9.000"},
		{"5.000", "0", "5.000"},
		{"3.333", "33.3", "2.223"},
		{"10", "150", "0"},
		{"10", "-5", "10"},
	}

	for _, tt := range tests {
		got := FinalPrice(d(tt.actual), d(tt.offer))
		if !got.Equal(d(tt.want)) {
			t.Errorf("FinalPrice(%s, %s) = %s, want %s", tt.actual, tt.offer, got, tt.want)
		}
	}

	if got := Discount(d("12.000"), d("25")); !got.Equal(d("3.000")) {
		t.Errorf("Discount = %s, want 3.000", got)
	}
}

func newRates() *DeliveryRates {
	return NewDeliveryRates(config.DeliveryConfig{
		DefaultFee: d("2.000"),
		FreeOver:   d("30.000"),
		Rates: map[string]decimal.Decimal{
			"Salmiya":     d("1.500"),
			"Jahra":       d("3.000"),
			"Kuwait City": d("1.000"),
		},
	})
}

func TestDeliveryFee(t *testing.T) {
	rates := newRates()

	tests := []struct {
		area     string
		subtotal string
		want     string
	}{
		{"Salmiya", "10", "1.500"},
		{"  kuwait   city ", "10", "1.000"},
		{"Unknown", "10", "2.000"},
		{"Jahra", "30.000", "0"},
	}

	for _, tt := range tests {
		if got := rates.Fee(tt.area, d(tt.subtotal)); !got.Equal(d(tt.want)) {
			t.Errorf("Fee(%q, %s) = %s, want %s", tt.area, tt.subtotal, got, tt.want)
		}
	}

	areas := rates.Areas()
	if len(areas) != 3 || areas[0] != "Jahra" {
		t.Errorf("Unexpected areas: %v", areas)
	}
}

func TestQuote(t *testing.T) {
	rates := newRates()
	items := []models.CartItem{
		{ProductID: 1, UnitPrice: d("5.000"), Quantity: 1},
		{ProductID: 2, UnitPrice: d("3.500"), Quantity: 2},
	}

	q := rates.Quote(items, "Salmiya", d("1.000"))
	if !q.Subtotal.Equal(d("12.000")) || !q.DeliveryFee.Equal(d("1.500")) || !q.Total.Equal(d("12.500")) {
		t.Errorf("Unexpected quote: %+v", q)
	}

	capped := rates.Quote(items, "Salmiya", d("50"))
	if !capped.Discount.Equal(d("12.000")) || !capped.Total.Equal(d("1.500")) {
		t.Errorf("Expected discount capped at subtotal, got %+v", capped)
	}

	empty := rates.Quote(nil, "Salmiya", decimal.Zero)
	if !empty.Total.IsZero() || !empty.DeliveryFee.IsZero() {
		t.Errorf("Expected zero quote for empty cart, got %+v", empty)
	}
}

func TestNoFreeDeliveryWithoutThreshold(t *testing.T) {
	rates := NewDeliveryRates(config.DeliveryConfig{DefaultFee: d("2.000")})
	if got := rates.Fee("anywhere", d("1000")); !got.Equal(d("2.000")) {
		t.Errorf("Expected default fee without threshold, got %s", got)
	}
}
