package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/models"
)

type OrderService struct {
	client *apiclient.Client
}

type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []OrderLine `json:"items"`
	RecipientName   string      `json:"recipientName"`
	RecipientPhone  string      `json:"recipientPhone"`
	DeliveryAddress string      `json:"deliveryAddress"`
	DeliveryArea    string      `json:"deliveryArea,omitempty"`
	DeliveryDate    string      `json:"deliveryDate,omitempty"`
	GiftMessage     string      `json:"giftMessage,omitempty"`
}

func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (models.Order, error) {
	return apiclient.Post[models.Order](ctx, s.client, "/orders", req)
}

// List returns the signed-in customer's orders, newest first.
func (s *OrderService) List(ctx context.Context, page apiclient.PageRequest) (apiclient.Page[models.Order], error) {
	return apiclient.Get[apiclient.Page[models.Order]](ctx, s.client, "/orders", page.Values())
}

func (s *OrderService) Get(ctx context.Context, id int64) (models.Order, error) {
	return apiclient.Get[models.Order](ctx, s.client, idPath("/orders/%d", id), nil)
}

// Track looks an order up by its public order number; no session required.
func (s *OrderService) Track(ctx context.Context, orderNumber string) (models.Order, error) {
	return call[models.Order](ctx, s.client, apiclient.Request{
		Method:    http.MethodGet,
		Path:      "/orders/track/" + url.PathEscape(orderNumber),
		Anonymous: true,
	})
}

// Cancel refuses locally unless the order is still PENDING.
func (s *OrderService) Cancel(ctx context.Context, order models.Order) (models.Order, error) {
	if !order.CanCancel() {
		return order, ErrNotCancellable
	}
	return apiclient.Put[models.Order](ctx, s.client, idPath("/orders/%d/cancel", order.OrderID), nil)
}

type PaymentService struct {
	client *apiclient.Client
}

// Initiate starts a payment for an order; the result carries the hosted
// payment page URL when the gateway needs a redirect.
func (s *PaymentService) Initiate(ctx context.Context, orderID int64) (models.Payment, error) {
	return apiclient.Post[models.Payment](ctx, s.client, "/payments/initiate", map[string]int64{"orderId": orderID})
}

func (s *PaymentService) Status(ctx context.Context, orderID int64) (models.Payment, error) {
	return apiclient.Get[models.Payment](ctx, s.client, idPath("/payments/%d/status", orderID), nil)
}

// PaymentCallback is what the gateway appends to the return URL. Payload is
// the gateway's encrypted blob when it sends one instead of plain fields.
type PaymentCallback struct {
	OrderID int64                `json:"orderId,omitempty"`
	Ref     string               `json:"ref,omitempty"`
	Status  models.PaymentStatus `json:"status,omitempty"`
	Message string               `json:"message,omitempty"`
	Payload string               `json:"payload,omitempty"`
}

// ParsePaymentCallback reads the return URL query. Either an encrypted
// payload or an order ID with a reference is required.
func ParsePaymentCallback(query url.Values) (PaymentCallback, error) {
	cb := PaymentCallback{
		Ref:     query.Get("ref"),
		Status:  models.PaymentStatus(query.Get("status")),
		Message: query.Get("message"),
		Payload: query.Get("data"),
	}
	if cb.Payload != "" {
		return cb, nil
	}

	raw := query.Get("orderId")
	if raw == "" || cb.Ref == "" {
		return PaymentCallback{}, fmt.Errorf("%w: orderId and ref are required", ErrInvalidCallback)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return PaymentCallback{}, fmt.Errorf("%w: bad orderId %q", ErrInvalidCallback, raw)
	}
	cb.OrderID = id
	return cb, nil
}

// Confirm hands the callback back to the API, which verifies it with the
// gateway and answers with the settled payment.
func (s *PaymentService) Confirm(ctx context.Context, cb PaymentCallback) (models.Payment, error) {
	return anonymousPost[models.Payment](ctx, s.client, "/payments/callback", cb)
}
