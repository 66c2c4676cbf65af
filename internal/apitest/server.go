// Package apitest runs an in-process storefront API for tests. It speaks the
// same envelope, token and status rules as the real backend, and exposes
// knobs to force authentication failures.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/flowerstore/internal/models"
	"github.com/shopspring/decimal"
)

const defaultTokenTTL = 15 * time.Minute

type account struct {
	user         models.User
	passwordHash []byte
}

// Server is a fake storefront API.
type Server struct {
	*httptest.Server

	secret   []byte
	tokenTTL time.Duration

	mu            sync.Mutex
	accounts      map[string]*account
	otps          map[string]string
	usedRefresh   map[string]bool
	generation    int
	products      map[int64]models.Product
	categories    map[int64]models.Category
	orders        map[int64]*orderRecord
	reviews       map[int64][]models.Review
	nextID        int64
	failRefresh   bool
	refreshDelay  time.Duration
	rejectAll     bool
	failDiscounts map[int64]bool
	lastLanguage  string

	RefreshCalls atomic.Int32
	Unauthorized atomic.Int32
}

type orderRecord struct {
	owner      int64
	order      models.Order
	paymentRef string
}

// New starts a server seeded with two categories and three products.
func New() *Server {
	s := &Server{
		secret:        []byte("apitest-secret"),
		tokenTTL:      defaultTokenTTL,
		accounts:      make(map[string]*account),
		otps:          make(map[string]string),
		usedRefresh:   make(map[string]bool),
		products:      make(map[int64]models.Product),
		categories:    make(map[int64]models.Category),
		orders:        make(map[int64]*orderRecord),
		reviews:       make(map[int64][]models.Review),
		failDiscounts: make(map[int64]bool),
		nextID:        100,
	}
	s.seedCatalog()
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, s.recordLanguage)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/otp/request", s.handleOTPRequest)
		r.Post("/otp/verify", s.handleOTPVerify)
		r.Post("/refresh-token", s.handleRefresh)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)
		r.Post("/google", s.handleGoogle)
		r.With(s.requireAuth).Get("/me", s.handleMe)
		r.With(s.requireAuth).Post("/logout", s.handleLogout)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Get("/featured", s.handleFeaturedProducts)
		r.Get("/{id}", s.handleGetProduct)
		r.Get("/{id}/reviews", s.handleListReviews)
		r.With(s.requireAuth).Post("/{id}/reviews", s.handleCreateReview)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.handleListCategories)
		r.Get("/{id}", s.handleGetCategory)
		r.Get("/{id}/products", s.handleCategoryProducts)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/track/{number}", s.handleTrackOrder)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateOrder)
			r.Get("/", s.handleListOrders)
			r.Get("/{id}", s.handleGetOrder)
			r.Put("/{id}/cancel", s.handleCancelOrder)
		})
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/callback", s.handlePaymentCallback)
		r.With(s.requireAuth).Post("/initiate", s.handleInitiatePayment)
		r.With(s.requireAuth).Get("/{id}/status", s.handlePaymentStatus)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAuth, s.requireAdmin)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/orders", s.handleAdminListOrders)
		r.Put("/orders/{id}/status", s.handleAdminOrderStatus)
		r.Put("/orders/{id}/payment-status", s.handleAdminPaymentStatus)
		r.Put("/categories/{id}/discount", s.handleCategoryDiscount)
	})

	return r
}

// Handler returns the API routes for serving on an address of the caller's
// choosing.
func (s *Server) Handler() http.Handler {
	return s.Config.Handler
}

// RegisterUser creates an account directly and returns it.
func (s *Server) RegisterUser(name, email, password string, role models.Role) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.createAccountLocked(name, email, "", password, role)
	if err != nil {
		panic(err)
	}
	return acct.user
}

// RevokeAccessTokens invalidates every access token issued so far.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// FailRefresh makes the refresh endpoint reject every token.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// DelayRefresh holds every refresh exchange for d before answering.
func (s *Server) DelayRefresh(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// RejectAll answers 401 to every authenticated request, even with fresh tokens.
func (s *Server) RejectAll(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAll = reject
}

// FailDiscountFor makes discount updates for the category fail with 500.
func (s *Server) FailDiscountFor(categoryID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDiscounts[categoryID] = true
}

// LastLanguage returns the Accept-Language of the latest request.
func (s *Server) LastLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLanguage
}

// OTP returns the last code issued for the destination.
func (s *Server) OTP(destination string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otps[destination]
}

// PaymentRef returns the gateway reference issued for the order.
func (s *Server) PaymentRef(orderID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.orders[orderID]; ok {
		return rec.paymentRef
	}
	return ""
}

// Product returns the stored product.
func (s *Server) Product(id int64) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *Server) recordLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastLanguage = r.Header.Get("Accept-Language")
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) seedCatalog() {
	s.categories[1] = models.Category{CategoryID: 1, CategoryName: "Roses", CategoryNameAr: "ورود", DisplayOrder: 1, IsActive: true}
	s.categories[2] = models.Category{CategoryID: 2, CategoryName: "Bouquets", CategoryNameAr: "باقات", DisplayOrder: 2, IsActive: true}

	s.addProductLocked(models.Product{ProductID: 1, ProductName: "Red Rose Box", SKU: "ROSE-RED-12", CategoryID: 1,
		ActualPrice: decimal.RequireFromString("5.000"), IsActive: true, IsFeatured: true, Tags: []string{"red", "romance"}})
	s.addProductLocked(models.Product{ProductID: 2, ProductName: "Spring Bouquet", SKU: "BQT-SPRING", CategoryID: 2,
		ActualPrice: decimal.RequireFromString("3.500"), IsActive: true, Tags: []string{"tulip", "spring"}})
	s.addProductLocked(models.Product{ProductID: 3, ProductName: "White Lily Vase", SKU: "LILY-WHT", CategoryID: 2,
		ActualPrice: decimal.RequireFromString("12.000"), OfferPercentage: decimal.NewFromInt(25), IsActive: true})
}

func (s *Server) addProductLocked(p models.Product) {
	p.FinalPrice = finalPrice(p.ActualPrice, p.OfferPercentage)
	s.products[p.ProductID] = p
	category := s.categories[p.CategoryID]
	category.ProductCount++
	s.categories[p.CategoryID] = category
}

func finalPrice(actual, offer decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return actual.Mul(hundred.Sub(offer)).Div(hundred).Round(3)
}

func (s *Server) newIDLocked() int64 {
	s.nextID++
	return s.nextID
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string, details ...string) {
	body := map[string]any{"success": false, "message": message}
	if len(details) > 0 {
		body["errors"] = details
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}
