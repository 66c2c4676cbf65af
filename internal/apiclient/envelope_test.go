package apiclient

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/safar/flowerstore/internal/models"
)

func TestPageAcceptsBareArray(t *testing.T) {
	var page Page[models.Category]
	if err := json.Unmarshal([]byte(`[{"categoryId":1},{"categoryId":2}]`), &page); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(page.Content) != 2 || page.TotalElements != 2 || page.TotalPages != 1 {
		t.Errorf("Unexpected page: %+v", page)
	}
	if page.HasNext() {
		t.Error("Single page should have no next page")
	}
}

func TestPageAcceptsPaginatedObject(t *testing.T) {
	var page Page[models.Category]
	raw := `{"content":[{"categoryId":3}],"totalPages":4,"totalElements":31,"number":1,"size":10}`
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(page.Content) != 1 || page.TotalElements != 31 || !page.HasNext() {
		t.Errorf("Unexpected page: %+v", page)
	}

	var empty Page[models.Category]
	if err := json.Unmarshal([]byte(`{"totalPages":0}`), &empty); err != nil {
		t.Fatalf("Unmarshal empty: %v", err)
	}
	if empty.Content == nil {
		t.Error("Expected non-nil empty content")
	}
}

func TestPageRequestClampsValues(t *testing.T) {
	values := PageRequest{Page: -3, Size: 500, Sort: "createdAt,desc"}.Values()
	if values.Get("page") != "0" || values.Get("size") != "20" || values.Get("sort") != "createdAt,desc" {
		t.Errorf("Unexpected values: %v", values)
	}
}

func TestFeaturedProductsBareArrayThroughClient(t *testing.T) {
	f := setup(t)

	page, err := Get[Page[models.Product]](context.Background(), f.client, "/products/featured", nil)
	if err != nil {
		t.Fatalf("Get featured: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].SKU != "ROSE-RED-12" {
		t.Errorf("Unexpected featured page: %+v", page)
	}
}

func TestFlattenErrors(t *testing.T) {
	details := []json.RawMessage{
		json.RawMessage(`"plain message"`),
		json.RawMessage(`{"field":"email","message":"is invalid"}`),
		json.RawMessage(`{"message":"no field"}`),
		json.RawMessage(`42`),
	}
	got := flattenErrors(details)
	want := []string{"plain message", "email: is invalid", "no field", "42"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d errors, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("errors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
