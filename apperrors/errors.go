// Package apperrors defines the error kinds the commerce core raises and the
// HTTP status each one maps to, so handlers never collapse distinct failures
// into a generic 500.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnavailable       Kind = "unavailable"
	KindEmptyCart         Kind = "empty_cart"
	KindMissingAddress    Kind = "missing_address"
	KindInvalidQuantity   Kind = "invalid_quantity"
	KindInvalidState      Kind = "invalid_state"
	KindInvalidTransition Kind = "invalid_transition"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func InsufficientStock(productName string) *Error {
	return &Error{Kind: KindInsufficientStock, Message: "insufficient stock for " + productName}
}

func Unavailable(productName string) *Error {
	return &Error{Kind: KindUnavailable, Message: productName + " is not available"}
}

func EmptyCart() *Error {
	return &Error{Kind: KindEmptyCart, Message: "cart is empty"}
}

func MissingAddress() *Error {
	return &Error{Kind: KindMissingAddress, Message: "delivery address required"}
}

func InvalidQuantity(msg string) *Error {
	return &Error{Kind: KindInvalidQuantity, Message: msg}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func InvalidTransition(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change order status from %s to %s", from, to),
	}
}

// Status maps an error to its HTTP status. Unknown errors are 500.
func Status(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInsufficientStock, KindUnavailable, KindInvalidState, KindInvalidTransition:
		return http.StatusConflict
	case KindEmptyCart, KindMissingAddress, KindInvalidQuantity:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message. Internal errors are masked.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
