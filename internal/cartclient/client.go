package cartclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrCartNotFound           = errors.New("cart not found")
	ErrCartServiceUnavailable = errors.New("cart service unavailable")

	errCallerAborted = errors.New("request aborted by caller")
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*domain.CartSnapshot]
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*domain.CartSnapshot](gobreaker.Settings{
			Name:    "cart-service",
			Timeout: breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailureThreshold
			},
			// an absent cart is an answer, not a fault of the cart service
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrCartNotFound)
			},
			// the caller gave up, the cart service did not fail
			IsExcluded: func(err error) bool {
				return errors.Is(err, errCallerAborted)
			},
		}),
	}
}

// GetCart returns the cart snapshot, ErrCartNotFound when the cart service
// answers 404, or an error wrapping ErrCartServiceUnavailable for anything
// else that went wrong, including an open breaker. Calls cut short by ctx
// are not counted by the breaker.
func (c *Client) GetCart(ctx context.Context, cartID uuid.UUID) (*domain.CartSnapshot, error) {
	cart, err := c.breaker.Execute(func() (*domain.CartSnapshot, error) {
		cart, err := c.fetch(ctx, cartID)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerAborted, ctx.Err())
		}
		return cart, err
	})
	if err == nil {
		return cart, nil
	}
	if errors.Is(err, ErrCartNotFound) || errors.Is(err, ErrCartServiceUnavailable) {
		return nil, err
	}
	// gobreaker.ErrOpenState and ErrTooManyRequests
	return nil, fmt.Errorf("%w: %w", ErrCartServiceUnavailable, err)
}

func (c *Client) fetch(ctx context.Context, cartID uuid.UUID) (*domain.CartSnapshot, error) {
	endpoint, err := url.JoinPath(c.baseURL, cartID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: build url: %w", ErrCartServiceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrCartServiceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCartServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrCartNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: unexpected status %d", ErrCartServiceUnavailable, resp.StatusCode)
	}

	var cart domain.CartSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("%w: decode cart: %w", ErrCartServiceUnavailable, err)
	}
	return &cart, nil
}
