package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/flowerstore/internal/models"
	"github.com/shopspring/decimal"
)

// DeliveryFee is charged on every order placed against the fake API.
var DeliveryFee = decimal.RequireFromString("2.000")

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []struct {
			ProductID int64 `json:"productId"`
			Quantity  int   `json:"quantity"`
		} `json:"items"`
		RecipientName   string `json:"recipientName"`
		RecipientPhone  string `json:"recipientPhone"`
		DeliveryAddress string `json:"deliveryAddress"`
		DeliveryArea    string `json:"deliveryArea"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Order has no items")
		return
	}
	if req.RecipientName == "" || req.DeliveryAddress == "" {
		writeError(w, http.StatusBadRequest, "Validation failed", "recipientName: required", "deliveryAddress: required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var subtotal decimal.Decimal
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, ok := s.products[item.ProductID]
		if !ok || item.Quantity < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid item %d", item.ProductID))
			return
		}
		line := product.FinalPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
		items = append(items, models.OrderItem{
			ProductID:   product.ProductID,
			ProductName: product.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   product.FinalPrice,
			Subtotal:    line,
		})
	}

	id := s.newIDLocked()
	order := models.Order{
		OrderID:         id,
		OrderNumber:     fmt.Sprintf("FL-%06d", id),
		Items:           items,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryArea:    req.DeliveryArea,
		DeliveryStatus:  models.DeliveryPending,
		PaymentStatus:   models.PaymentPending,
		Subtotal:        subtotal,
		DeliveryFee:     DeliveryFee,
		DiscountAmount:  decimal.Zero,
		TotalAmount:     subtotal.Add(DeliveryFee),
		CreatedAt:       time.Now().UTC(),
	}
	s.orders[id] = &orderRecord{owner: currentUser(r).ID, order: order}

	writeData(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	owner := currentUser(r).ID

	s.mu.Lock()
	orders := make([]models.Order, 0)
	for _, rec := range s.orders {
		if rec.owner == owner {
			orders = append(orders, rec.order)
		}
	}
	s.mu.Unlock()

	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID > orders[j].OrderID })
	writeData(w, http.StatusOK, paginate(r, orders))
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	user := currentUser(r)

	s.mu.Lock()
	rec, exists := s.orders[id]
	s.mu.Unlock()

	if !exists || (rec.owner != user.ID && !user.RoleName.IsAdmin()) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeData(w, http.StatusOK, rec.order)
}

func (s *Server) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.orders {
		if rec.order.OrderNumber == number {
			writeData(w, http.StatusOK, rec.order)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Order not found")
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.orders[id]
	if !exists || rec.owner != currentUser(r).ID {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if !rec.order.CanCancel() {
		writeError(w, http.StatusBadRequest, "Only pending orders can be cancelled")
		return
	}

	rec.order.DeliveryStatus = models.DeliveryCancelled
	if rec.order.PaymentStatus == models.PaymentPending {
		rec.order.PaymentStatus = models.PaymentCancelled
	}
	writeData(w, http.StatusOK, rec.order)
}

func (s *Server) handleAdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status models.DeliveryStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.orders[id]
	if !exists {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if !rec.order.DeliveryStatus.CanTransition(req.Status, true) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot move order from %s to %s", rec.order.DeliveryStatus, req.Status))
		return
	}

	rec.order.DeliveryStatus = req.Status
	writeData(w, http.StatusOK, rec.order)
}

func (s *Server) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.DeliveryStatus(r.URL.Query().Get("deliveryStatus"))

	s.mu.Lock()
	orders := make([]models.Order, 0, len(s.orders))
	for _, rec := range s.orders {
		if status == "" || rec.order.DeliveryStatus == status {
			orders = append(orders, rec.order)
		}
	}
	s.mu.Unlock()

	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID > orders[j].OrderID })
	writeData(w, http.StatusOK, paginate(r, orders))
}

func (s *Server) handleAdminPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if err := decodeBody(r, &req); err != nil || !req.PaymentStatus.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid payment status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.orders[id]
	if !exists {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	rec.order.PaymentStatus = req.PaymentStatus
	writeData(w, http.StatusOK, rec.order)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.Dashboard{
		TotalOrders:   int64(len(s.orders)),
		TotalProducts: int64(len(s.products)),
	}
	for _, acct := range s.accounts {
		if acct.user.RoleName == models.RoleUser {
			stats.TotalCustomers++
		}
	}
	for _, rec := range s.orders {
		if rec.order.DeliveryStatus == models.DeliveryPending {
			stats.PendingOrders++
		}
		if rec.order.PaymentStatus.IsPaid() {
			stats.TotalRevenue = stats.TotalRevenue.Add(rec.order.TotalAmount)
		}
	}
	writeData(w, http.StatusOK, stats)
}
