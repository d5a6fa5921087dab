package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/neha-5456/kaagjee/internal/modules/payments"
)

// Simulates the gateway callback for a checkout made against the dev
// gateway: signs (gateway_order_id, gateway_payment_id) with the dev secret
// and posts it to /api/verify-payment.

type verifyPayload struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/api/verify-payment", "Verify endpoint URL")
	secret := flag.String("secret", os.Getenv("DEV_GATEWAY_SECRET"), "Dev gateway secret")
	token := flag.String("token", os.Getenv("KAAGJEE_TOKEN"), "Session token of the paying user")
	gatewayOrderID := flag.String("gateway-order-id", "", "Gateway order id from checkout (required)")
	gatewayPaymentID := flag.String("gateway-payment-id", "pay_"+randomHex(8), "Gateway payment id")
	badSignature := flag.Bool("bad-signature", false, "Send a wrong signature to exercise the failure path")
	dryRun := flag.Bool("dry-run", false, "Only print payload, don't send")

	flag.Parse()

	if *gatewayOrderID == "" {
		fmt.Fprintf(os.Stderr, "Error: -gateway-order-id is required\n")
		os.Exit(1)
	}
	if *secret == "" {
		*secret = "kaagjee-dev-secret"
	}

	sig := payments.SignPayload(*secret, *gatewayOrderID, *gatewayPaymentID)
	if *badSignature {
		sig = "deadbeef" + sig[8:]
	}

	payload := verifyPayload{
		GatewayOrderID:   *gatewayOrderID,
		GatewayPaymentID: *gatewayPaymentID,
		Signature:        sig,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = "0123456789abcdef"[time.Now().UnixNano()%16]
	}
	return string(b)
}
