package payments

import "context"

type CreateOrderRequest struct {
	AmountPaise int // smallest currency unit, per the gateway convention
	Currency    string
	Receipt     string // our order code
}

type CreateOrderResponse struct {
	GatewayOrderID string
}

// Provider wraps the external payment gateway. CreateOrder is the only
// network call in the settlement path and must honor the context deadline;
// VerifySignature is pure local crypto and never errors.
type Provider interface {
	Name() string

	// PublicKey is handed to the client so the gateway UI can open the
	// checkout for the returned gateway order id.
	PublicKey() string

	CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error)

	// VerifySignature recomputes the callback signature over
	// gatewayOrderID|gatewayPaymentID and compares in constant time.
	// This is the sole trust boundary turning a client callback into a
	// verified payment fact.
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}
