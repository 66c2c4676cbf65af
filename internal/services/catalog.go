package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/models"
)

type ProductService struct {
	client *apiclient.Client
}

type ProductFilter struct {
	CategoryID int64
	Search     string
	Featured   bool
	apiclient.PageRequest
}

func (f ProductFilter) values() url.Values {
	values := f.PageRequest.Values()
	setInt(values, "categoryId", f.CategoryID)
	if s := strings.TrimSpace(f.Search); s != "" {
		values.Set("search", s)
	}
	if f.Featured {
		values.Set("featured", "true")
	}
	return values
}

func (s *ProductService) List(ctx context.Context, filter ProductFilter) (apiclient.Page[models.Product], error) {
	return apiclient.Get[apiclient.Page[models.Product]](ctx, s.client, "/products", filter.values())
}

func (s *ProductService) Get(ctx context.Context, id int64) (models.Product, error) {
	return apiclient.Get[models.Product](ctx, s.client, idPath("/products/%d", id), nil)
}

func (s *ProductService) Featured(ctx context.Context) ([]models.Product, error) {
	page, err := apiclient.Get[apiclient.Page[models.Product]](ctx, s.client, "/products/featured", nil)
	return page.Content, err
}

func (s *ProductService) Search(ctx context.Context, query string, page apiclient.PageRequest) (apiclient.Page[models.Product], error) {
	return s.List(ctx, ProductFilter{Search: query, PageRequest: page})
}

type CategoryService struct {
	client *apiclient.Client
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	page, err := apiclient.Get[apiclient.Page[models.Category]](ctx, s.client, "/categories", nil)
	return page.Content, err
}

func (s *CategoryService) Get(ctx context.Context, id int64) (models.Category, error) {
	return apiclient.Get[models.Category](ctx, s.client, idPath("/categories/%d", id), nil)
}

func (s *CategoryService) Products(ctx context.Context, id int64, page apiclient.PageRequest) (apiclient.Page[models.Product], error) {
	return apiclient.Get[apiclient.Page[models.Product]](ctx, s.client, idPath("/categories/%d/products", id), page.Values())
}

type ReviewService struct {
	client *apiclient.Client
}

func (s *ReviewService) ForProduct(ctx context.Context, productID int64, page apiclient.PageRequest) (apiclient.Page[models.Review], error) {
	return apiclient.Get[apiclient.Page[models.Review]](ctx, s.client, idPath("/products/%d/reviews", productID), page.Values())
}

func (s *ReviewService) Create(ctx context.Context, productID int64, rating int, comment string) (models.Review, error) {
	if rating < 1 || rating > 5 {
		return models.Review{}, ErrInvalidRating
	}
	return apiclient.Post[models.Review](ctx, s.client, idPath("/products/%d/reviews", productID), map[string]any{
		"rating":  rating,
		"comment": comment,
	})
}
