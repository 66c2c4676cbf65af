package models

import "testing"

func TestCustomerCancelOnlyWhilePending(t *testing.T) {
	order := Order{OrderNumber: "ORD-1", DeliveryStatus: DeliveryPending}
	if !order.CanCancel() {
		t.Error("Pending order should be cancellable")
	}

	order.DeliveryStatus = DeliveryConfirmed
	if order.CanCancel() {
		t.Error("Confirmed order should not be cancellable")
	}

	if DeliveryConfirmed.CanTransition(DeliveryCancelled, false) {
		t.Error("Cancel transition from CONFIRMED should be refused")
	}
}

func TestDeliveryTransitions(t *testing.T) {
	tests := []struct {
		from, to DeliveryStatus
		byAdmin  bool
		want     bool
	}{
		{DeliveryPending, DeliveryConfirmed, true, true},
		{DeliveryPending, DeliveryConfirmed, false, false},
		{DeliveryPending, DeliveryProcessing, true, false},
		{DeliveryProcessing, DeliveryOutForDelivery, true, true},
		{DeliveryOutForDelivery, DeliveryDelivered, true, true},
		{DeliveryDelivered, DeliveryPending, true, false},
		{DeliveryPending, DeliveryCancelled, false, true},
		{DeliveryDelivered, DeliveryRefunded, true, true},
		{DeliveryDelivered, DeliveryRefunded, false, false},
		{DeliveryCancelled, DeliveryRefunded, true, false},
		{DeliveryRefunded, DeliveryPending, true, false},
		{DeliveryPending, DeliveryStatus("SHIPPED"), true, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to, tt.byAdmin); got != tt.want {
			t.Errorf("%s -> %s (admin=%v) = %v, want %v", tt.from, tt.to, tt.byAdmin, got, tt.want)
		}
	}
}

func TestPaymentStatusIndependentOfDelivery(t *testing.T) {
	order := Order{DeliveryStatus: DeliveryPending, PaymentStatus: PaymentCaptured}
	if !order.PaymentStatus.IsPaid() {
		t.Error("CAPTURED should count as paid")
	}
	if !order.CanCancel() {
		t.Error("Payment status must not affect cancellability")
	}
	if PaymentFailed.IsPaid() {
		t.Error("FAILED should not count as paid")
	}
}

func TestRoleGating(t *testing.T) {
	if RoleUser.IsAdmin() {
		t.Error("USER is not an admin")
	}
	if !RoleAdmin.IsAdmin() || RoleAdmin.CanWrite() {
		t.Error("ADMIN is a read-only admin")
	}
	if !RoleSuperAdmin.CanWrite() {
		t.Error("SUPER_ADMIN can write")
	}
}
