package services

import "errors"

// Domain errors surfaced to the handler layer, which maps them to HTTP status
// codes with errors.Is. Anything else coming out of a service is a
// persistence fault.
var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrItemNotFound       = errors.New("item not found in cart")
	ErrOrderNotFound      = errors.New("order not found")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrCartChanged        = errors.New("cart changed during checkout")
	ErrProductUnavailable = errors.New("product no longer available")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
)
