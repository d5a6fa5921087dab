package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Razorpay talks to the Razorpay orders API. Amounts cross this boundary in
// paise; everything above it works in whole rupees.
type Razorpay struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Razorpay) Name() string      { return "razorpay" }
func (r *Razorpay) PublicKey() string { return r.keyID }

type rzpCreateOrderBody struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type rzpOrder struct {
	ID string `json:"id"`
}

func (r *Razorpay) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	body, err := json.Marshal(rzpCreateOrderBody{
		Amount:   req.AmountPaise,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return CreateOrderResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return CreateOrderResponse{}, err
	}
	httpReq.SetBasicAuth(r.keyID, r.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return CreateOrderResponse{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return CreateOrderResponse{}, fmt.Errorf("%w: status %d: %s", ErrGatewayUnavailable, resp.StatusCode, raw)
	}

	var out rzpOrder
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CreateOrderResponse{}, fmt.Errorf("%w: decode: %v", ErrGatewayUnavailable, err)
	}
	if out.ID == "" {
		return CreateOrderResponse{}, fmt.Errorf("%w: empty order id", ErrGatewayUnavailable)
	}
	return CreateOrderResponse{GatewayOrderID: out.ID}, nil
}

func (r *Razorpay) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return verifyHMAC(r.keySecret, gatewayOrderID, gatewayPaymentID, signature)
}

// SignPayload computes the Razorpay callback signature. Exported for the
// mockcheckout tool and tests.
func SignPayload(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}
	want := SignPayload(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(want), []byte(signature))
}

// DevGateway stands in when no Razorpay keys are configured. It issues local
// ids and verifies signatures against a local secret, so the whole
// initiate→verify protocol runs unchanged in development.
type DevGateway struct {
	Secret string
}

func NewDevGateway(secret string) *DevGateway {
	if secret == "" {
		secret = "kaagjee-dev-secret"
	}
	return &DevGateway{Secret: secret}
}

func (d *DevGateway) Name() string      { return "dev" }
func (d *DevGateway) PublicKey() string { return "rzp_test_dev" }

func (d *DevGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	_ = ctx
	if req.AmountPaise <= 0 {
		return CreateOrderResponse{}, fmt.Errorf("%w: non-positive amount", ErrGatewayUnavailable)
	}
	return CreateOrderResponse{GatewayOrderID: "order_dev_" + randomHex(12)}, nil
}

func (d *DevGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return verifyHMAC(d.Secret, gatewayOrderID, gatewayPaymentID, signature)
}

// ProviderFromEnv picks Razorpay when keys are configured, the dev gateway
// otherwise.
func ProviderFromEnv() Provider {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID != "" && keySecret != "" {
		return NewRazorpay(keyID, keySecret)
	}
	return NewDevGateway(os.Getenv("DEV_GATEWAY_SECRET"))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "fallback"
	}
	return hex.EncodeToString(b)
}
