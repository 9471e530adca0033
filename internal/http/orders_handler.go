package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxJSONBodyBytes = 1 << 20 // 1MB
	uploadFormField  = "file"
	idParam          = "id"
)

type OrderService interface {
	Create(ctx context.Context, cartID uuid.UUID, customer domain.CustomerInfo, delivery domain.DeliveryInfo) (*domain.Order, error)
	Retrieve(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	Finalize(ctx context.Context, orderID uuid.UUID, payment domain.PaymentRequest) (*domain.Order, error)
	BulkIngest(ctx context.Context, r io.Reader) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders         OrderService
	timeout        time.Duration
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewOrdersHandler(orders OrderService, timeout time.Duration, maxUploadBytes int64, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:         orders,
		timeout:        timeout,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type CreateOrderRequestDTO struct {
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
	DeliveryInfo domain.DeliveryInfo `json:"deliveryInfo"`
}

// POST /order/{cartId}
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cartID, ok := parseID(w, r, "cartId")
	if !ok {
		return
	}

	var req CreateOrderRequestDTO
	if !decodeJSONBody(w, r, &req) {
		return
	}

	order, err := h.orders.Create(ctx, cartID, req.CustomerInfo, req.DeliveryInfo)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// GET /order/{orderId}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseID(w, r, "orderId")
	if !ok {
		return
	}

	order, err := h.orders.Retrieve(ctx, orderID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// DELETE /order/{orderId}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseID(w, r, "orderId")
	if !ok {
		return
	}

	if err := h.orders.Delete(ctx, orderID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /order/{orderId}/finalize
func (h *OrdersHandler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseID(w, r, "orderId")
	if !ok {
		return
	}

	var payment domain.PaymentRequest
	if !decodeJSONBody(w, r, &payment) {
		return
	}

	order, err := h.orders.Finalize(ctx, orderID, payment)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// POST /order/upload
func (h *OrdersHandler) UploadOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, _, err := r.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "invalid_request", "upload exceeds size limit")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	orders, err := h.orders.BulkIngest(ctx, file)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// parseID reads the {id} path parameter. name is only used in the error
// message.
func parseID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, idParam))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
