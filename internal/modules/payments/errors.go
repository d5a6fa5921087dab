package payments

import "errors"

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUnknownAttempt     = errors.New("unknown payment attempt")
	ErrSignatureMismatch  = errors.New("payment signature mismatch")
	ErrNothingPending     = errors.New("nothing pending on this order")
	ErrNotOwner           = errors.New("order belongs to another user")
	ErrOrderNotPayable    = errors.New("order not payable")
	ErrCartChanged        = errors.New("cart changed during checkout")
)
