// Package services maps each storefront API endpoint to one method. Business
// rules live in the stores; these only shape parameters and unwrap results.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/safar/flowerstore/internal/apiclient"
)

var (
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus  = errors.New("invalid status")

	ErrInvalidCallback = errors.New("invalid payment callback")
)

// Services bundles every domain service around one API client.
type Services struct {
	Auth       *AuthService
	Products   *ProductService
	Categories *CategoryService
	Orders     *OrderService
	Customers  *CustomerService
	Payments   *PaymentService
	Reviews    *ReviewService
	Uploads    *UploadService
	Admin      *AdminService
}

func New(client *apiclient.Client) *Services {
	return &Services{
		Auth:       &AuthService{client: client},
		Products:   &ProductService{client: client},
		Categories: &CategoryService{client: client},
		Orders:     &OrderService{client: client},
		Customers:  &CustomerService{client: client},
		Payments:   &PaymentService{client: client},
		Reviews:    &ReviewService{client: client},
		Uploads:    &UploadService{client: client},
		Admin:      &AdminService{client: client},
	}
}

func call[T any](ctx context.Context, client *apiclient.Client, req apiclient.Request) (T, error) {
	var out T
	err := client.Do(ctx, req, &out)
	return out, err
}

func anonymousPost[T any](ctx context.Context, client *apiclient.Client, path string, body any) (T, error) {
	return call[T](ctx, client, apiclient.Request{
		Method:    http.MethodPost,
		Path:      path,
		Body:      body,
		Anonymous: true,
	})
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

func setInt(values url.Values, key string, v int64) {
	if v != 0 {
		values.Set(key, strconv.FormatInt(v, 10))
	}
}
