package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/etnz/folio"
	"github.com/rs/zerolog"
)

// Error codes of the error envelope.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	CodeStockNotFound    = "STOCK_NOT_FOUND"
	CodePriceNotFound    = "PRICE_NOT_FOUND"
	CodeMissingPrice     = "MISSING_PRICE"
	CodeUpstream         = "UPSTREAM_UNAVAILABLE"
	CodeTimeout          = "TIMEOUT"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("cannot write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: RequestID(r.Context()),
	}})
}

// classify maps an error to its status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, folio.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, folio.ErrCustomerNotFound):
		return http.StatusNotFound, CodeCustomerNotFound
	case errors.Is(err, folio.ErrStockNotFound):
		return http.StatusNotFound, CodeStockNotFound
	case errors.Is(err, folio.ErrMissingPrice):
		return http.StatusUnprocessableEntity, CodeMissingPrice
	case errors.Is(err, folio.ErrPriceNotFound):
		return http.StatusNotFound, CodePriceNotFound
	case errors.Is(err, folio.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, CodeUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// fail writes the error response of err. Details of server side errors are
// logged, not returned.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	logger := zerolog.Ctx(r.Context())
	switch {
	case status == http.StatusInternalServerError:
		logger.Error().Err(err).Msg("internal error")
		message = "an unexpected error occurred"
	case status >= 500:
		logger.Warn().Err(err).Str("code", code).Msg("service unavailable")
		message = http.StatusText(status)
	}
	writeError(w, r, status, code, message)
}
