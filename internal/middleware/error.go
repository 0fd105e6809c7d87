package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      http.StatusText(statusCode),
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	details := make(map[string]interface{})
	details["validation_errors"] = errors

	RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", details)
}

// RespondWithDomainError maps a business error onto the HTTP surface.
// Typed errors carry their payload into the details map so clients can act
// on them (remaining stock, offending fields, the rejected transition).
// Anything unrecognized becomes a generic 500 without leaking internals.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	var (
		stockErr      *domain.InsufficientStockError
		validationErr *domain.ValidationError
		transitionErr *domain.InvalidTransitionError
		priceErr      *domain.PriceMismatchError
	)

	switch {
	case errors.As(err, &stockErr):
		RespondWithErrorDetails(w, http.StatusBadRequest, "insufficient stock", map[string]interface{}{
			"product_id": stockErr.ProductID.String(),
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	case errors.As(err, &validationErr):
		RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", map[string]interface{}{
			"fields": validationErr.Fields,
		})
	case errors.As(err, &transitionErr):
		RespondWithErrorDetails(w, http.StatusConflict, "invalid status transition", map[string]interface{}{
			"from": string(transitionErr.From),
			"to":   string(transitionErr.To),
		})
	case errors.As(err, &priceErr):
		RespondWithErrorDetails(w, http.StatusBadRequest, "order total does not match its components", map[string]interface{}{
			"submitted": priceErr.Submitted,
			"computed":  priceErr.Computed,
		})
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrReviewNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateReview),
		errors.Is(err, domain.ErrNoOpTransition):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyPaid):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		RespondWithError(w, http.StatusForbidden, "access denied")
	default:
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
