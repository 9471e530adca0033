package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/cache"
	"github.com/Damiangorskii/web-order-service/internal/cartclient"
	"github.com/Damiangorskii/web-order-service/internal/clock"
	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/Damiangorskii/web-order-service/internal/publisher"
	"github.com/Damiangorskii/web-order-service/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRetention = 24 * time.Hour

	// sharedReadTimeout plus cacheWriteTimeout stays below cache.FenceTTL
	sharedReadTimeout = 5 * time.Second
	cacheWriteTimeout = time.Second
	expireSweepKey    = "expire-stale"
)

type CartFetcher interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (*domain.CartSnapshot, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...publisher.OrderEvent) error
}

// SweepRecorder observes the outcome of expiry sweeps.
type SweepRecorder interface {
	SweepCompleted(deleted int64)
	SweepFailed()
}

type noopSweepRecorder struct{}

func (noopSweepRecorder) SweepCompleted(int64) {}
func (noopSweepRecorder) SweepFailed()         {}

type OrderService struct {
	repo      repository.OrderRepository
	carts     CartFetcher
	cache     cache.OrderCache
	events    EventPublisher
	clock     clock.Clock
	retention time.Duration
	logger    *slog.Logger
	sweeps    SweepRecorder
	sfg       singleflight.Group // collapses concurrent reads of one order and overlapping sweeps
}

type Option func(*OrderService)

func WithCache(c cache.OrderCache) Option {
	return func(s *OrderService) { s.cache = c }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *OrderService) { s.events = p }
}

func WithClock(c clock.Clock) Option {
	return func(s *OrderService) { s.clock = c }
}

func WithRetention(d time.Duration) Option {
	return func(s *OrderService) { s.retention = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *OrderService) { s.logger = l }
}

func WithSweepRecorder(r SweepRecorder) Option {
	return func(s *OrderService) { s.sweeps = r }
}

func NewOrderService(repo repository.OrderRepository, carts CartFetcher, opts ...Option) *OrderService {
	s := &OrderService{
		repo:      repo,
		carts:     carts,
		cache:     cache.NoopCache{},
		events:    publisher.NoopPublisher{},
		clock:     clock.NewSystem(),
		retention: DefaultRetention,
		logger:    slog.Default(),
		sweeps:    noopSweepRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create builds an unpaid order from the products currently in the cart.
func (s *OrderService) Create(ctx context.Context, cartID uuid.UUID, customer domain.CustomerInfo, delivery domain.DeliveryInfo) (*domain.Order, error) {
	if err := validateContact(customer, delivery); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, cartclient.ErrCartNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCartNotFound, cartID)
		}
		return nil, fmt.Errorf("%w: fetch cart %s: %w", ErrUpstreamUnavailable, cartID, err)
	}

	products := make([]domain.Product, len(cart.Products))
	copy(products, cart.Products)

	order := &domain.Order{
		OrderID:      uuid.New(),
		Products:     products,
		CustomerInfo: customer,
		DeliveryInfo: delivery,
		IsPaid:       false,
		CreatedAt:    s.clock.Now(),
	}

	saved, err := s.repo.SaveOrder(ctx, order)
	if err != nil {
		return nil, storeFailure("save order", err)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", saved.OrderID.String()),
		slog.String("cart_id", cartID.String()),
		slog.Int("products", len(saved.Products)))
	s.publish(ctx, newEvent(publisher.EventOrderCreated, saved, s.clock.Now()))
	return saved, nil
}

// Retrieve reads through the cache. Cached orders past the retention window
// are ignored so a swept order is not served from a stale entry.
//
// Concurrent calls for one order share a single read. The shared read is
// detached from the caller that started it, and each caller stops waiting
// when its own ctx ends.
func (s *OrderService) Retrieve(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	ch := s.sfg.DoChan(orderKey(orderID), func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return s.readThrough(readCtx, orderID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Order), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *OrderService) readThrough(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	cached, err := s.cache.Get(ctx, orderID)
	switch {
	case err == nil && !cached.CreatedBefore(s.cutoff()):
		return cached, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		s.logger.WarnContext(ctx, "cache get failed", slog.String("order_id", orderID.String()), slog.Any("error", err))
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, s.lookupError(orderID, err)
	}

	// dropped by the cache if Delete or Finalize fenced the key after our read
	setCtx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Set(setCtx, order); err != nil {
		s.logger.WarnContext(ctx, "cache set failed", slog.String("order_id", orderID.String()), slog.Any("error", err))
	}
	return order, nil
}

// Delete removes an existing order. Deleting an order that does not exist is
// an error.
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return s.lookupError(orderID, err)
	}

	if err := s.repo.DeleteOrder(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return storeFailure("delete order", err)
	}

	s.invalidate(ctx, orderID)
	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", orderID.String()))
	s.publish(ctx, newEvent(publisher.EventOrderDeleted, order, s.clock.Now()))
	return nil
}

// Finalize marks the order paid. Payment details are checked for presence
// only. Calling it on a paid order returns the order unchanged.
func (s *OrderService) Finalize(ctx context.Context, orderID uuid.UUID, payment domain.PaymentRequest) (*domain.Order, error) {
	if err := domain.Validate(payment); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, s.lookupError(orderID, err)
	}

	transitioned := order.MarkPaid()

	saved, err := s.repo.SaveOrder(ctx, order)
	if err != nil {
		return nil, storeFailure("save order", err)
	}

	s.invalidate(ctx, orderID)
	if transitioned {
		s.logger.InfoContext(ctx, "order paid", slog.String("order_id", orderID.String()))
		s.publish(ctx, newEvent(publisher.EventOrderPaid, saved, s.clock.Now()))
	}
	return saved, nil
}

// uploadedOrder is the shape accepted by BulkIngest. The id and creation
// time are accepted so existing exports can be re-uploaded, but both are
// replaced.
type uploadedOrder struct {
	OrderID      json.RawMessage     `json:"orderId"`
	Products     []domain.Product    `json:"products"`
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
	DeliveryInfo domain.DeliveryInfo `json:"deliveryInfo"`
	IsPaid       bool                `json:"isPaid"`
	CreatedAt    json.RawMessage     `json:"createdAt"`
}

// BulkIngest parses a JSON array of orders and stores all of them with one
// bulk write. Every order gets a new id. Nothing is stored unless the whole
// payload parses and validates.
func (s *OrderService) BulkIngest(ctx context.Context, r io.Reader) ([]*domain.Order, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read payload: %w", ErrMalformedPayload, err)
	}

	uploaded, err := decodeUpload(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	now := s.clock.Now()
	orders := make([]*domain.Order, 0, len(uploaded))
	for i, u := range uploaded {
		if err := validateContact(u.CustomerInfo, u.DeliveryInfo); err != nil {
			return nil, fmt.Errorf("%w: order %d: %w", ErrMalformedPayload, i, err)
		}
		products := u.Products
		if products == nil {
			products = []domain.Product{}
		}
		orders = append(orders, &domain.Order{
			OrderID:      uuid.New(),
			Products:     products,
			CustomerInfo: u.CustomerInfo,
			DeliveryInfo: u.DeliveryInfo,
			IsPaid:       u.IsPaid,
			CreatedAt:    now,
		})
	}

	saved, err := s.repo.SaveOrders(ctx, orders)
	if err != nil {
		return nil, storeFailure("save orders", err)
	}

	events := make([]publisher.OrderEvent, 0, len(saved))
	for _, o := range saved {
		events = append(events, newEvent(publisher.EventOrderImported, o, now))
	}
	s.logger.InfoContext(ctx, "orders imported", slog.Int("count", len(saved)))
	s.publish(ctx, events...)
	return saved, nil
}

func decodeUpload(data []byte) ([]uploadedOrder, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var uploaded []uploadedOrder
	if err := dec.Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	if uploaded == nil {
		return nil, errors.New("decode orders: expected a JSON array")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode orders: unexpected data after array")
	}
	return uploaded, nil
}

// ExpireStale deletes orders created before now minus the retention window.
// A call made while a sweep is running waits for that sweep instead of
// starting another one. Failures are logged and counted, never returned.
func (s *OrderService) ExpireStale(ctx context.Context) {
	_, _, shared := s.sfg.Do(expireSweepKey, func() (any, error) {
		cutoff := s.cutoff()
		deleted, err := s.repo.DeleteOrdersCreatedBefore(ctx, cutoff)
		if err != nil {
			s.sweeps.SweepFailed()
			s.logger.ErrorContext(ctx, "expire stale orders failed",
				slog.Time("cutoff", cutoff), slog.Any("error", err))
			return nil, nil
		}

		s.sweeps.SweepCompleted(deleted)
		if deleted > 0 {
			s.logger.InfoContext(ctx, "expired stale orders",
				slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
		}
		return nil, nil
	})
	if shared {
		s.logger.DebugContext(ctx, "expire stale joined a running sweep")
	}
}

func (s *OrderService) cutoff() time.Time {
	return s.clock.Now().Add(-s.retention)
}

func (s *OrderService) lookupError(orderID uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrOrderNotFound) {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return storeFailure("get order", err)
}

// invalidate runs after a store write. New reads start a fresh flight
// instead of joining one that may have read the old state.
func (s *OrderService) invalidate(ctx context.Context, orderID uuid.UUID) {
	s.sfg.Forget(orderKey(orderID))
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, orderID); err != nil {
		s.logger.WarnContext(ctx, "cache invalidate failed", slog.String("order_id", orderID.String()), slog.Any("error", err))
	}
}

func (s *OrderService) publish(ctx context.Context, events ...publisher.OrderEvent) {
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.WarnContext(ctx, "publish order events failed", slog.Int("events", len(events)), slog.Any("error", err))
	}
}

func newEvent(t publisher.EventType, o *domain.Order, at time.Time) publisher.OrderEvent {
	return publisher.OrderEvent{
		EventType:  t,
		OrderID:    o.OrderID,
		IsPaid:     o.IsPaid,
		OccurredAt: at,
	}
}

// contact groups the fields every order must carry so validation errors are
// reported as customerInfo.* and deliveryInfo.*.
type contact struct {
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
	DeliveryInfo domain.DeliveryInfo `json:"deliveryInfo"`
}

func validateContact(customer domain.CustomerInfo, delivery domain.DeliveryInfo) error {
	return domain.Validate(contact{CustomerInfo: customer, DeliveryInfo: delivery})
}

func orderKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}
