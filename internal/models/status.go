package models

type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "PENDING"
	DeliveryConfirmed      DeliveryStatus = "CONFIRMED"
	DeliveryProcessing     DeliveryStatus = "PROCESSING"
	DeliveryOutForDelivery DeliveryStatus = "OUT_FOR_DELIVERY"
	DeliveryDelivered      DeliveryStatus = "DELIVERED"
	DeliveryCancelled      DeliveryStatus = "CANCELLED"
	DeliveryRefunded       DeliveryStatus = "REFUNDED"
)

var deliveryProgression = []DeliveryStatus{
	DeliveryPending,
	DeliveryConfirmed,
	DeliveryProcessing,
	DeliveryOutForDelivery,
	DeliveryDelivered,
}

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryCancelled, DeliveryRefunded:
		return true
	}
	return s.step() >= 0
}

func (s DeliveryStatus) step() int {
	for i, status := range deliveryProgression {
		if status == s {
			return i
		}
	}
	return -1
}

// Final reports whether no further transition is possible.
func (s DeliveryStatus) Final() bool {
	return s == DeliveryCancelled || s == DeliveryRefunded
}

// Cancellable reports whether a customer may cancel the order.
func (s DeliveryStatus) Cancellable() bool {
	return s == DeliveryPending
}

// CanTransition reports whether the delivery track may move from s to next.
// The forward path is one step at a time. CANCELLED is reachable from PENDING
// only, REFUNDED from any non-final state and only by an admin.
func (s DeliveryStatus) CanTransition(next DeliveryStatus, byAdmin bool) bool {
	if s.Final() || !next.Valid() {
		return false
	}

	switch next {
	case DeliveryCancelled:
		return s == DeliveryPending
	case DeliveryRefunded:
		return byAdmin
	}

	if !byAdmin {
		return false
	}
	return next.step() == s.step()+1
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentCaptured   PaymentStatus = "CAPTURED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// IsPaid treats the gateway's CAPTURED as COMPLETED.
func (s PaymentStatus) IsPaid() bool {
	return s == PaymentCompleted || s == PaymentCaptured
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentCaptured,
		PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}
