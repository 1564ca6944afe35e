package server

import (
	"errors"
	"net/http"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	walletdomain "github.com/apexmarket/vendora/internal/wallet/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, billingdomain.ErrGatewayFailure):
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_failure",
			Message: "payment gateway verification failed",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// isValidationError covers requests that could never succeed: malformed input
// and server-side checks the client got wrong.
func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, billingdomain.ErrInvalidReference),
		errors.Is(err, billingdomain.ErrInvalidMetadata),
		errors.Is(err, billingdomain.ErrInvalidCampaign),
		errors.Is(err, billingdomain.ErrPaymentNotSuccessful),
		errors.Is(err, billingdomain.ErrPurposeMismatch),
		errors.Is(err, billingdomain.ErrAmountMismatch),
		errors.Is(err, billingdomain.ErrCurrencyMismatch),
		errors.Is(err, walletdomain.ErrInvalidAmount),
		errors.Is(err, financedomain.ErrInvalidAmount),
		errors.Is(err, financedomain.ErrInvalidEntry),
		errors.Is(err, plandomain.ErrUnknownPlan),
		errors.Is(err, plandomain.ErrUnknownAddon),
		errors.Is(err, plandomain.ErrUnknownCycle),
		errors.Is(err, plandomain.ErrNotPriced):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, businessdomain.ErrBusinessNotFound),
		errors.Is(err, billingdomain.ErrCampaignNotFound),
		errors.Is(err, walletdomain.ErrWalletNotFound),
		errors.Is(err, walletdomain.ErrWithdrawalNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// isConflictError covers requests that target state no longer in a shape that
// permits them.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, businessdomain.ErrBusinessLocked),
		errors.Is(err, billingdomain.ErrCampaignNotPayable),
		errors.Is(err, walletdomain.ErrInsufficientFunds),
		errors.Is(err, walletdomain.ErrInsufficientHold),
		errors.Is(err, walletdomain.ErrInvalidTransition),
		errors.Is(err, financedomain.ErrDuplicateEntry):
		return true
	default:
		return false
	}
}
