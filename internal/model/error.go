package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeUnauthenticated      = "UNAUTHENTICATED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeEmptyCart            = "EMPTY_CART"
	ErrCodeIncompleteAddress    = "INCOMPLETE_ADDRESS"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeProductNotActive     = "PRODUCT_NOT_ACTIVE"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
	ErrCodeCheckoutInProgress   = "CHECKOUT_IN_PROGRESS"
	ErrCodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodePersistenceFailure   = "PERSISTENCE_FAILURE"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so parameterised errors compare equal
// to their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnauthenticated    = NewDomainError(ErrCodeUnauthenticated, "Authentication required")
	ErrForbidden          = NewDomainError(ErrCodeForbidden, "Not allowed to access this resource")
	ErrInvalidCredentials = NewDomainError(ErrCodeInvalidCredentials, "Invalid email or password")
	ErrEmailTaken         = NewDomainError(ErrCodeEmailTaken, "Email is already registered")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrIncompleteAddress  = NewDomainError(ErrCodeIncompleteAddress, "Shipping address is incomplete")
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrProductNotActive   = NewDomainError(ErrCodeProductNotActive, "Product is not available")
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidTransition  = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrCheckoutInProgress = NewDomainError(ErrCodeCheckoutInProgress, "A checkout with this idempotency key is already in progress")
	ErrUnsupportedMedia   = NewDomainError(ErrCodeUnsupportedMediaType, "Only image uploads are accepted")
	ErrPersistence        = NewDomainError(ErrCodePersistenceFailure, "Failed to save the order, please try again")
)

// NewValidationError creates a validation error with a request-specific message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// NewProductNotFound reports a cart reference to a product that does not exist.
func NewProductNotFound(productID int64) *DomainError {
	return NewDomainError(ErrCodeProductNotFound, fmt.Sprintf("Product %d not found", productID))
}

// NewProductNotActive reports a cart reference to a product that cannot be sold.
func NewProductNotActive(title string) *DomainError {
	return NewDomainError(ErrCodeProductNotActive, fmt.Sprintf("Product %q is not available", title))
}

// NewInsufficientStock reports a requested quantity above what is on hand.
func NewInsufficientStock(title string, available int) *DomainError {
	return NewDomainError(ErrCodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for %q: only %d available", title, available))
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
