package orders

import "errors"

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrOverpayment        = errors.New("payment would exceed order total")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
)
