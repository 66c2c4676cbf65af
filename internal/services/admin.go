package services

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/models"
	"github.com/shopspring/decimal"
)

// AdminService covers back-office endpoints. The API enforces roles; callers
// may consult models.Role.CanWrite to decide which actions to offer.
type AdminService struct {
	client *apiclient.Client
}

type AdminOrderFilter struct {
	DeliveryStatus models.DeliveryStatus
	PaymentStatus  models.PaymentStatus
	Search         string
	apiclient.PageRequest
}

func (f AdminOrderFilter) values() url.Values {
	values := f.PageRequest.Values()
	if f.DeliveryStatus != "" {
		values.Set("deliveryStatus", string(f.DeliveryStatus))
	}
	if f.PaymentStatus != "" {
		values.Set("paymentStatus", string(f.PaymentStatus))
	}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	return values
}

type ProductInput struct {
	ProductName     string          `json:"productName"`
	ProductNameAr   string          `json:"productNameAr,omitempty"`
	Description     string          `json:"description,omitempty"`
	SKU             string          `json:"sku"`
	CategoryID      int64           `json:"categoryId"`
	ActualPrice     decimal.Decimal `json:"actualPrice"`
	OfferPercentage decimal.Decimal `json:"offerPercentage"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	IsActive        bool            `json:"isActive"`
	IsFeatured      bool            `json:"isFeatured"`
	Tags            []string        `json:"tags,omitempty"`
}

type CategoryInput struct {
	CategoryName   string `json:"categoryName"`
	CategoryNameAr string `json:"categoryNameAr,omitempty"`
	Description    string `json:"description,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	DisplayOrder   int    `json:"displayOrder"`
	IsActive       bool   `json:"isActive"`
}

type AdminInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password,omitempty"`
	RoleName models.Role `json:"roleName"`
}

func (s *AdminService) Dashboard(ctx context.Context) (models.Dashboard, error) {
	return apiclient.Get[models.Dashboard](ctx, s.client, "/admin/dashboard", nil)
}

func (s *AdminService) Orders(ctx context.Context, filter AdminOrderFilter) (apiclient.Page[models.Order], error) {
	return apiclient.Get[apiclient.Page[models.Order]](ctx, s.client, "/admin/orders", filter.values())
}

func (s *AdminService) UpdateDeliveryStatus(ctx context.Context, orderID int64, status models.DeliveryStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return apiclient.Put[models.Order](ctx, s.client, idPath("/admin/orders/%d/status", orderID), map[string]models.DeliveryStatus{"status": status})
}

func (s *AdminService) UpdatePaymentStatus(ctx context.Context, orderID int64, status models.PaymentStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return apiclient.Put[models.Order](ctx, s.client, idPath("/admin/orders/%d/payment-status", orderID), map[string]models.PaymentStatus{"paymentStatus": status})
}

func (s *AdminService) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	return apiclient.Post[models.Product](ctx, s.client, "/admin/products", in)
}

func (s *AdminService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (models.Product, error) {
	return apiclient.Put[models.Product](ctx, s.client, idPath("/admin/products/%d", id), in)
}

func (s *AdminService) DeleteProduct(ctx context.Context, id int64) error {
	return apiclient.Delete(ctx, s.client, idPath("/admin/products/%d", id))
}

// ToggleProduct flips a product's active flag.
func (s *AdminService) ToggleProduct(ctx context.Context, id int64) (models.Product, error) {
	return apiclient.Patch[models.Product](ctx, s.client, idPath("/admin/products/%d/toggle", id), nil)
}

func (s *AdminService) CreateCategory(ctx context.Context, in CategoryInput) (models.Category, error) {
	return apiclient.Post[models.Category](ctx, s.client, "/admin/categories", in)
}

func (s *AdminService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (models.Category, error) {
	return apiclient.Put[models.Category](ctx, s.client, idPath("/admin/categories/%d", id), in)
}

func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	return apiclient.Delete(ctx, s.client, idPath("/admin/categories/%d", id))
}

func (s *AdminService) Customers(ctx context.Context, page apiclient.PageRequest) (apiclient.Page[models.User], error) {
	return apiclient.Get[apiclient.Page[models.User]](ctx, s.client, "/admin/customers", page.Values())
}

func (s *AdminService) Customer(ctx context.Context, id int64) (models.User, error) {
	return apiclient.Get[models.User](ctx, s.client, idPath("/admin/customers/%d", id), nil)
}

func (s *AdminService) Admins(ctx context.Context) ([]models.User, error) {
	page, err := apiclient.Get[apiclient.Page[models.User]](ctx, s.client, "/admin/admins", nil)
	return page.Content, err
}

func (s *AdminService) CreateAdmin(ctx context.Context, in AdminInput) (models.User, error) {
	return apiclient.Post[models.User](ctx, s.client, "/admin/admins", in)
}

func (s *AdminService) UpdateAdmin(ctx context.Context, id int64, in AdminInput) (models.User, error) {
	return apiclient.Put[models.User](ctx, s.client, idPath("/admin/admins/%d", id), in)
}

func (s *AdminService) DeleteAdmin(ctx context.Context, id int64) error {
	return apiclient.Delete(ctx, s.client, idPath("/admin/admins/%d", id))
}

// BulkResult summarizes a multi-step admin operation. Steps that succeeded
// before a failure stay applied.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    map[int64]error
}

func (r BulkResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d updates failed", r.Failed, r.Succeeded+r.Failed)
}

// ApplyCategoryDiscount sets offerPercentage on every product of each category,
// one request per category, continuing past failures.
func (s *AdminService) ApplyCategoryDiscount(ctx context.Context, categoryIDs []int64, offerPercentage decimal.Decimal) (BulkResult, error) {
	if offerPercentage.IsNegative() || offerPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return BulkResult{}, fmt.Errorf("offer percentage %s out of range", offerPercentage)
	}

	result := BulkResult{Errors: make(map[int64]error)}
	for _, id := range categoryIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, err := apiclient.Put[struct{}](ctx, s.client, idPath("/admin/categories/%d/discount", id), map[string]decimal.Decimal{
			"offerPercentage": offerPercentage,
		})
		if err != nil {
			log.Printf("Category %d discount failed: %v", id, err)
			result.Failed++
			result.Errors[id] = err
			continue
		}
		result.Succeeded++
	}
	return result, nil
}
