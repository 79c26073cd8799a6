package folio

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed requests: bad dates, reversed
	// ranges, empty ids or invalid holdings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCustomerNotFound is returned when the customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrStockNotFound is returned when a ticker is unknown.
	ErrStockNotFound = errors.New("stock not found")
	// ErrPriceNotFound is returned by a PriceSeries when no price exists on or
	// before the requested date.
	ErrPriceNotFound = errors.New("price not found")
	// ErrMissingPrice is returned in Strict mode when a holding has no price at
	// one of the endpoints.
	ErrMissingPrice = fmt.Errorf("missing price: %w", ErrPriceNotFound)
	// ErrUpstreamUnavailable wraps any other failure of a collaborator.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// invalidf returns an ErrInvalidInput with a formatted detail.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// isContextError reports whether err is a context cancellation or deadline.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// upstream classifies a collaborator error: known sentinels and context errors
// are kept, everything else is wrapped as ErrUpstreamUnavailable.
func upstream(err error, format string, args ...any) error {
	switch {
	case err == nil:
		return nil
	case isContextError(err),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrStockNotFound),
		errors.Is(err, ErrPriceNotFound),
		errors.Is(err, ErrUpstreamUnavailable):
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, fmt.Sprintf(format, args...), err)
	}
}
