package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/safar/flowerstore/internal/models"
	"github.com/shopspring/decimal"
)

type page struct {
	Content       any   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

func paginate[T any](r *http.Request, items []T) page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if number < 0 {
		number = 0
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size < 1 || size > 100 {
		size = 20
	}

	start := number * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	totalPages := len(items) / size
	if len(items)%size > 0 {
		totalPages++
	}

	return page{
		Content:       items[start:end],
		TotalPages:    totalPages,
		TotalElements: int64(len(items)),
		Number:        number,
		Size:          size,
	}
}

func (s *Server) sortedProductsLocked(keep func(models.Product) bool) []models.Product {
	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ProductID < products[j].ProductID })
	return products
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := strings.ToLower(query.Get("search"))
	categoryID, _ := strconv.ParseInt(query.Get("categoryId"), 10, 64)

	s.mu.Lock()
	products := s.sortedProductsLocked(func(p models.Product) bool {
		if categoryID != 0 && p.CategoryID != categoryID {
			return false
		}
		return search == "" || strings.Contains(strings.ToLower(p.ProductName), search)
	})
	s.mu.Unlock()

	writeData(w, http.StatusOK, paginate(r, products))
}

// handleFeaturedProducts answers with a bare array, as the real backend does.
func (s *Server) handleFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := s.sortedProductsLocked(func(p models.Product) bool { return p.IsFeatured })
	s.mu.Unlock()

	writeData(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	s.mu.Lock()
	product, exists := s.products[id]
	s.mu.Unlock()

	if !exists {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeData(w, http.StatusOK, product)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	categories := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	s.mu.Unlock()

	sort.Slice(categories, func(i, j int) bool { return categories[i].DisplayOrder < categories[j].DisplayOrder })
	writeData(w, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	s.mu.Lock()
	category, exists := s.categories[id]
	s.mu.Unlock()

	if !exists {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	writeData(w, http.StatusOK, category)
}

func (s *Server) handleCategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	s.mu.Lock()
	products := s.sortedProductsLocked(func(p models.Product) bool { return p.CategoryID == id })
	s.mu.Unlock()

	writeData(w, http.StatusOK, paginate(r, products))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	s.mu.Lock()
	reviews := append([]models.Review{}, s.reviews[id]...)
	s.mu.Unlock()

	writeData(w, http.StatusOK, paginate(r, reviews))
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "Validation failed", "rating: must be between 1 and 5")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	review := models.Review{
		ReviewID:  s.newIDLocked(),
		ProductID: id,
		UserName:  currentUser(r).Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}
	s.reviews[id] = append(s.reviews[id], review)
	writeData(w, http.StatusCreated, review)
}

func (s *Server) handleCategoryDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req struct {
		OfferPercentage decimal.Decimal `json:"offerPercentage"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failDiscounts[id] {
		writeError(w, http.StatusInternalServerError, "Discount update failed")
		return
	}
	if _, exists := s.categories[id]; !exists {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}

	updated := 0
	for pid, p := range s.products {
		if p.CategoryID != id {
			continue
		}
		p.OfferPercentage = req.OfferPercentage
		p.FinalPrice = finalPrice(p.ActualPrice, p.OfferPercentage)
		s.products[pid] = p
		updated++
	}
	writeData(w, http.StatusOK, map[string]int{"updatedProducts": updated})
}
