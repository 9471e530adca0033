package domain

import (
	"time"

	"github.com/google/uuid"
)

type CustomerInfo struct {
	FirstName   string `json:"firstName" validate:"notblank"`
	LastName    string `json:"lastName" validate:"notblank"`
	Email       string `json:"email" validate:"notblank"`
	PhoneNumber string `json:"phoneNumber" validate:"notblank"`
}

type DeliveryInfo struct {
	Address    string `json:"address" validate:"notblank"`
	City       string `json:"city" validate:"notblank"`
	PostalCode string `json:"postalCode" validate:"notblank"`
	Country    string `json:"country" validate:"notblank"`
}

// Order is the aggregate persisted by the order store. Products are copied
// from the cart when the order is created and are never shared with it.
type Order struct {
	OrderID      uuid.UUID    `json:"orderId"`
	Products     []Product    `json:"products"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	DeliveryInfo DeliveryInfo `json:"deliveryInfo"`
	IsPaid       bool         `json:"isPaid"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// MarkPaid moves the order from unpaid to paid. It reports whether the
// transition happened; a paid order stays paid.
func (o *Order) MarkPaid() bool {
	if o.IsPaid {
		return false
	}
	o.IsPaid = true
	return true
}

// CreatedBefore reports whether the order is older than cutoff.
func (o *Order) CreatedBefore(cutoff time.Time) bool {
	return o.CreatedAt.Before(cutoff)
}
