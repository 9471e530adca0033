package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrOrderNotFound       = fmt.Errorf("order %w", ErrNotFound)
	ErrCartNotFound        = fmt.Errorf("cart %w", ErrNotFound)
	ErrValidationFailed    = errors.New("validation failed")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrStoreFailure        = errors.New("store failure")
)

func storeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}
