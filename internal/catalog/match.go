// Package catalog filters product lists that are already loaded.
package catalog

import (
	"strings"

	"github.com/safar/flowerstore/internal/models"
)

// Match returns the products whose name, Arabic name, SKU or any tag
// contains query. Matching ignores case; an empty query matches everything.
func Match(products []models.Product, query string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]models.Product{}, products...)
	}

	matched := make([]models.Product, 0)
	for _, p := range products {
		if matches(p, q) {
			matched = append(matched, p)
		}
	}
	return matched
}

func matches(p models.Product, q string) bool {
	fields := append([]string{p.ProductName, p.ProductNameAr, p.SKU}, p.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// InCategory keeps products of the given category; zero keeps all.
func InCategory(products []models.Product, categoryID int64) []models.Product {
	if categoryID == 0 {
		return append([]models.Product{}, products...)
	}
	kept := make([]models.Product, 0)
	for _, p := range products {
		if p.CategoryID == categoryID {
			kept = append(kept, p)
		}
	}
	return kept
}
