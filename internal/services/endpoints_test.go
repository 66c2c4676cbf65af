package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/models"
	"github.com/safar/flowerstore/internal/storage"
	"github.com/safar/flowerstore/internal/tokenstore"
	"github.com/shopspring/decimal"
)

type recorded struct {
	method      string
	path        string
	query       string
	contentType string
	body        []byte
}

type recorder struct {
	mu   sync.Mutex
	last recorded
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	rec.mu.Lock()
	rec.last = recorded{
		method:      r.Method,
		path:        r.URL.Path,
		query:       r.URL.RawQuery,
		contentType: r.Header.Get("Content-Type"),
		body:        body,
	}
	rec.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"success":true,"data":null}`)
}

func (rec *recorder) request() recorded {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.last
}

func setupRecorder(t *testing.T) (*recorder, *Services) {
	t.Helper()

	rec := &recorder{}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Tokens: tokenstore.New(storage.NewMemory())})
	if err != nil {
		t.Fatalf("New client: %v", err)
	}
	return rec, New(client)
}

func TestEndpointMapping(t *testing.T) {
	rec, svc := setupRecorder(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
		body   string
	}{
		{"customer profile", func() error { _, err := svc.Customers.Profile(ctx); return err },
			http.MethodGet, "/customers/profile", ""},
		{"update profile", func() error {
			_, err := svc.Customers.UpdateProfile(ctx, ProfileUpdate{Name: "Sara"})
			return err
		}, http.MethodPut, "/customers/profile", `{"name":"Sara"}`},
		{"change password", func() error {
			return svc.Customers.ChangePassword(ctx, PasswordChange{CurrentPassword: "a", NewPassword: "b", ConfirmNewPassword: "b"})
		}, http.MethodPut, "/customers/change-password", `{"currentPassword":"a","newPassword":"b","confirmNewPassword":"b"}`},
		{"addresses", func() error { _, err := svc.Customers.Addresses(ctx); return err },
			http.MethodGet, "/customers/addresses", ""},
		{"delete address", func() error { return svc.Customers.DeleteAddress(ctx, 4) },
			http.MethodDelete, "/customers/addresses/4", ""},
		{"initiate payment", func() error { _, err := svc.Payments.Initiate(ctx, 17); return err },
			http.MethodPost, "/payments/initiate", `{"orderId":17}`},
		{"payment status", func() error { _, err := svc.Payments.Status(ctx, 17); return err },
			http.MethodGet, "/payments/17/status", ""},
		{"logout", func() error { return svc.Auth.Logout(ctx) },
			http.MethodPost, "/auth/logout", ""},
		{"delete upload", func() error { return svc.Uploads.Delete(ctx, "products/rose.jpg") },
			http.MethodDelete, "/upload/image", ""},
		{"create product", func() error {
			_, err := svc.Admin.CreateProduct(ctx, ProductInput{ProductName: "Tulips", SKU: "TUL-1", CategoryID: 2,
				ActualPrice: decimal.RequireFromString("4.250"), IsActive: true})
			return err
		}, http.MethodPost, "/admin/products", ""},
		{"update product", func() error { _, err := svc.Admin.UpdateProduct(ctx, 9, ProductInput{}); return err },
			http.MethodPut, "/admin/products/9", ""},
		{"delete product", func() error { return svc.Admin.DeleteProduct(ctx, 9) },
			http.MethodDelete, "/admin/products/9", ""},
		{"toggle product", func() error { _, err := svc.Admin.ToggleProduct(ctx, 9); return err },
			http.MethodPatch, "/admin/products/9/toggle", ""},
		{"create category", func() error { _, err := svc.Admin.CreateCategory(ctx, CategoryInput{CategoryName: "Orchids"}); return err },
			http.MethodPost, "/admin/categories", ""},
		{"update category", func() error { _, err := svc.Admin.UpdateCategory(ctx, 3, CategoryInput{}); return err },
			http.MethodPut, "/admin/categories/3", ""},
		{"delete category", func() error { return svc.Admin.DeleteCategory(ctx, 3) },
			http.MethodDelete, "/admin/categories/3", ""},
		{"customers", func() error { _, err := svc.Admin.Customers(ctx, apiclient.PageRequest{}); return err },
			http.MethodGet, "/admin/customers", ""},
		{"customer", func() error { _, err := svc.Admin.Customer(ctx, 5); return err },
			http.MethodGet, "/admin/customers/5", ""},
		{"admins", func() error { _, err := svc.Admin.Admins(ctx); return err },
			http.MethodGet, "/admin/admins", ""},
		{"create admin", func() error {
			_, err := svc.Admin.CreateAdmin(ctx, AdminInput{Name: "Ali", Email: "ali@example.com", RoleName: models.RoleAdmin})
			return err
		}, http.MethodPost, "/admin/admins", `{"name":"Ali","email":"ali@example.com","roleName":"ADMIN"}`},
		{"update admin", func() error { _, err := svc.Admin.UpdateAdmin(ctx, 6, AdminInput{}); return err },
			http.MethodPut, "/admin/admins/6", ""},
		{"delete admin", func() error { return svc.Admin.DeleteAdmin(ctx, 6) },
			http.MethodDelete, "/admin/admins/6", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("call: %v", err)
			}
			got := rec.request()
			if got.method != tt.method || got.path != tt.path {
				t.Errorf("Expected %s %s, got %s %s", tt.method, tt.path, got.method, got.path)
			}
			if tt.body != "" && strings.TrimSpace(string(got.body)) != tt.body {
				t.Errorf("Expected body %s, got %s", tt.body, got.body)
			}
		})
	}
}

func TestAdminOrdersQuery(t *testing.T) {
	rec, svc := setupRecorder(t)

	_, err := svc.Admin.Orders(context.Background(), AdminOrderFilter{
		DeliveryStatus: models.DeliveryPending,
		PageRequest:    apiclient.PageRequest{Page: 2, Size: 10},
	})
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}

	got := rec.request()
	for _, want := range []string{"deliveryStatus=PENDING", "page=2", "size=10"} {
		if !strings.Contains(got.query, want) {
			t.Errorf("Expected query to contain %q, got %q", want, got.query)
		}
	}
}

func TestUploadImageIsMultipart(t *testing.T) {
	rec, svc := setupRecorder(t)

	if _, err := svc.Uploads.Image(context.Background(), "/tmp/photos/rose.jpg", strings.NewReader("jpeg-bytes")); err != nil {
		t.Fatalf("Image: %v", err)
	}

	got := rec.request()
	mediaType, params, err := mime.ParseMediaType(got.contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("Expected multipart content type, got %q", got.contentType)
	}

	reader := multipart.NewReader(strings.NewReader(string(got.body)), params["boundary"])
	part, err := reader.NextPart()
	if err != nil {
		t.Fatalf("NextPart: %v", err)
	}
	if part.FormName() != "file" || part.FileName() != "rose.jpg" {
		t.Errorf("Unexpected part %q / %q", part.FormName(), part.FileName())
	}
	data, _ := io.ReadAll(part)
	if string(data) != "jpeg-bytes" {
		t.Errorf("Unexpected part content %q", data)
	}
}

func TestProductFilterQuery(t *testing.T) {
	rec, svc := setupRecorder(t)

	_, err := svc.Products.List(context.Background(), ProductFilter{CategoryID: 4, Search: "  lily ", Featured: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	query := rec.request().query
	for _, want := range []string{"categoryId=4", "search=lily", "featured=true", "page=0", "size=20"} {
		if !strings.Contains(query, want) {
			t.Errorf("Expected query to contain %q, got %q", want, query)
		}
	}
}

func TestAuthResultComplete(t *testing.T) {
	var result AuthResult
	if err := json.Unmarshal([]byte(`{"accessToken":"abc"}`), &result); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if result.Complete() {
		t.Error("Result without user should be incomplete")
	}
}

func TestParsePaymentCallback(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		wantID  int64
	}{
		{"plain fields", "orderId=12&ref=abc&status=COMPLETED", false, 12},
		{"encrypted payload", "data=U2FsdGVkX1", false, 0},
		{"missing ref", "orderId=12", true, 0},
		{"bad order id", "orderId=x&ref=abc", true, 0},
		{"empty", "", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			cb, err := ParsePaymentCallback(values)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCallback) {
					t.Errorf("Expected ErrInvalidCallback, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cb.OrderID != tt.wantID {
				t.Errorf("OrderID = %d, want %d", cb.OrderID, tt.wantID)
			}
		})
	}
}
