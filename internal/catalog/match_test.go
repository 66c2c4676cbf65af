package catalog

import (
	"testing"

	"github.com/safar/flowerstore/internal/models"
)

var products = []models.Product{
	{ProductID: 1, ProductName: "Red Rose Box", ProductNameAr: "صندوق ورد أحمر", SKU: "ROSE-RED-12", CategoryID: 1, Tags: []string{"romance"}},
	{ProductID: 2, ProductName: "Spring Bouquet", SKU: "BQT-SPRING", CategoryID: 2, Tags: []string{"Tulip"}},
	{ProductID: 3, ProductName: "White Lily Vase", SKU: "LILY-WHT", CategoryID: 2},
}

func ids(ps []models.Product) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ProductID)
	}
	return out
}

func TestMatch(t *testing.T) {
	tests := []struct {
		query string
		want  []int64
	}{
		{"rose", []int64{1}},
		{"  LILY ", []int64{3}},
		{"bqt-", []int64{2}},
		{"tulip", []int64{2}},
		{"ورد", []int64{1}},
		{"e", []int64{1, 2, 3}},
		{"orchid", []int64{}},
		{"", []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		got := ids(Match(products, tt.query))
		if len(got) != len(tt.want) {
			t.Errorf("Match(%q) = %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Match(%q) = %v, want %v", tt.query, got, tt.want)
				break
			}
		}
	}
}

func TestInCategory(t *testing.T) {
	if got := ids(InCategory(products, 2)); len(got) != 2 || got[0] != 2 {
		t.Errorf("InCategory(2) = %v", got)
	}
	if got := InCategory(products, 0); len(got) != 3 {
		t.Errorf("InCategory(0) should keep all, got %d", len(got))
	}
}
