package apitest

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/safar/flowerstore/internal/models"
)

func paymentOf(rec *orderRecord) models.Payment {
	return models.Payment{
		OrderID:   rec.order.OrderID,
		Reference: rec.paymentRef,
		Status:    rec.order.PaymentStatus,
		Amount:    rec.order.TotalAmount,
	}
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID int64 `json:"orderId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.orders[req.OrderID]
	if !exists || rec.owner != currentUser(r).ID {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if rec.order.PaymentStatus != models.PaymentPending {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Payment is already %s", rec.order.PaymentStatus))
		return
	}

	rec.paymentRef = uuid.NewString()
	rec.order.PaymentStatus = models.PaymentProcessing

	payment := paymentOf(rec)
	payment.PaymentURL = fmt.Sprintf("https://pay.example.com/checkout/%s", rec.paymentRef)
	writeData(w, http.StatusOK, payment)
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
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
	writeData(w, http.StatusOK, paymentOf(rec))
}

// handlePaymentCallback settles a payment from the gateway's return
// parameters. Encrypted payloads are not understood by the fake.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID int64                `json:"orderId"`
		Ref     string               `json:"ref"`
		Status  models.PaymentStatus `json:"status"`
		Message string               `json:"message"`
		Payload string               `json:"payload"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Payload != "" {
		writeError(w, http.StatusBadRequest, "Unable to decrypt payment payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.orders[req.OrderID]
	if !exists || rec.paymentRef == "" || rec.paymentRef != req.Ref {
		writeError(w, http.StatusNotFound, "Payment not found")
		return
	}
	if rec.order.PaymentStatus != models.PaymentProcessing {
		writeData(w, http.StatusOK, paymentOf(rec))
		return
	}

	switch req.Status {
	case models.PaymentCompleted, models.PaymentCaptured, models.PaymentFailed, models.PaymentCancelled:
		rec.order.PaymentStatus = req.Status
	default:
		writeError(w, http.StatusBadRequest, "Invalid payment status")
		return
	}

	payment := paymentOf(rec)
	payment.Message = req.Message
	writeData(w, http.StatusOK, payment)
}
