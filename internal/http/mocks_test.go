package http

import (
	"context"
	"io"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
)

type mockOrderService struct {
	order    *domain.Order
	orders   []*domain.Order
	err      error
	uploaded string

	gotCartID   uuid.UUID
	gotOrderID  uuid.UUID
	gotCustomer domain.CustomerInfo
	gotPayment  domain.PaymentRequest
	calls       int
}

func (m *mockOrderService) Create(_ context.Context, cartID uuid.UUID, customer domain.CustomerInfo, _ domain.DeliveryInfo) (*domain.Order, error) {
	m.calls++
	m.gotCartID = cartID
	m.gotCustomer = customer
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderService) Retrieve(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	m.calls++
	m.gotOrderID = orderID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderService) Delete(_ context.Context, orderID uuid.UUID) error {
	m.calls++
	m.gotOrderID = orderID
	return m.err
}

func (m *mockOrderService) Finalize(_ context.Context, orderID uuid.UUID, payment domain.PaymentRequest) (*domain.Order, error) {
	m.calls++
	m.gotOrderID = orderID
	m.gotPayment = payment
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderService) BulkIngest(_ context.Context, r io.Reader) ([]*domain.Order, error) {
	m.calls++
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.uploaded = string(data)
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}
