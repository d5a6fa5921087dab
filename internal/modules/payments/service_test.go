package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/neha-5456/kaagjee/internal/mailer"
	"github.com/neha-5456/kaagjee/internal/modules/cart"
	"github.com/neha-5456/kaagjee/internal/modules/catalog"
	"github.com/neha-5456/kaagjee/internal/modules/orders"
	"github.com/neha-5456/kaagjee/internal/modules/pricing"
	"github.com/neha-5456/kaagjee/internal/shared/code"
)

// stubGateway issues sequential gateway order ids and accepts the literal
// signature "valid".
type stubGateway struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (g *stubGateway) Name() string      { return "stub" }
func (g *stubGateway) PublicKey() string { return "rzp_test_stub" }

func (g *stubGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return CreateOrderResponse{}, fmt.Errorf("%w: stub down", ErrGatewayUnavailable)
	}
	g.calls++
	return CreateOrderResponse{GatewayOrderID: fmt.Sprintf("order_stub_%d", g.calls)}, nil
}

func (g *stubGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return signature == "valid"
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&catalog.Product{}, &cart.CartItem{},
		&orders.Order{}, &orders.OrderItem{}, &orders.LedgerEntry{}, &orders.OrderStatusEvent{},
		&PaymentAttempt{}, &code.DayCounter{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	gateway *stubGateway
	mail    *mailer.Mock
	userID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testDB(t)
	gw := &stubGateway{}
	svc := NewService(db, gw)
	mock := &mailer.Mock{}
	svc.SetMailer(mock, "noreply@kaagjee.in")

	return &fixture{db: db, svc: svc, gateway: gw, mail: mock, userID: uuid.NewString()}
}

func (f *fixture) seedCartItem(t *testing.T, price int, allowHalf bool) catalog.Product {
	t.Helper()

	p := catalog.Product{
		ID:               uuid.NewString(),
		Title:            "GST Registration",
		Slug:             "gst-registration-" + uuid.NewString()[:8],
		FullPrice:        price,
		AllowHalfPayment: allowHalf,
		Status:           catalog.StatusActive,
		FormSchema:       datatypes.JSON(`[]`),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := f.db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	item := cart.CartItem{
		ID:             uuid.NewString(),
		UserID:         f.userID,
		ProductID:      p.ID,
		Fingerprint:    uuid.NewString(),
		PaymentOption:  pricing.ModeFull,
		FormData:       datatypes.JSON(`{}`),
		SchemaSnapshot: datatypes.JSON(`[]`),
		CreatedAt:      time.Now(),
	}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	return p
}

func (f *fixture) checkout(t *testing.T, mode string) CheckoutResult {
	t.Helper()

	res, err := f.svc.Checkout(context.Background(), CheckoutInput{
		UserID:        f.userID,
		PaymentMode:   mode,
		CustomerName:  "Ravi Kumar",
		CustomerEmail: "ravi@example.com",
		CustomerPhone: "9876543210",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return res
}

func (f *fixture) verify(gatewayOrderID, signature string) (VerifyResult, error) {
	return f.svc.VerifyPayment(context.Background(), VerifyInput{
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: "pay_" + uuid.NewString()[:8],
		Signature:        signature,
	})
}

func TestCheckout_FullMode(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 999, true)

	res := f.checkout(t, pricing.ModeFull)

	if res.Order.TotalAmount != 999 || res.Order.Status != orders.StatusPending {
		t.Errorf("unexpected order: total=%d status=%s", res.Order.TotalAmount, res.Order.Status)
	}
	if res.Payment.AmountPaise != 99900 {
		t.Errorf("expected 99900 paise at the gateway, got %d", res.Payment.AmountPaise)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(res.Items))
	}
	if res.Items[0].AdvanceAmount != 999 {
		t.Errorf("full mode advance must equal total, got %d", res.Items[0].AdvanceAmount)
	}

	var att PaymentAttempt
	if err := f.db.First(&att, "order_id = ?", res.Order.ID).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if att.Type != TypeFull || att.Status != StatusInitiated || att.Amount != 999 {
		t.Errorf("unexpected attempt: %+v", att)
	}

	var cartCount int64
	f.db.Model(&cart.CartItem{}).Where("user_id = ?", f.userID).Count(&cartCount)
	if cartCount != 0 {
		t.Errorf("cart must be consumed by checkout, %d rows left", cartCount)
	}
}

func TestCheckout_HalfModeOddTotal(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 999, true)

	res := f.checkout(t, pricing.ModeHalf)

	if res.Order.TotalAmount != 999 {
		t.Errorf("expected total 999, got %d", res.Order.TotalAmount)
	}
	if res.Payment.AmountPaise != 50000 {
		t.Errorf("expected advance of 50000 paise, got %d", res.Payment.AmountPaise)
	}

	var att PaymentAttempt
	if err := f.db.First(&att, "order_id = ?", res.Order.ID).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if att.Type != TypeHalf || att.Amount != 500 {
		t.Errorf("expected half attempt of 500, got %+v", att)
	}
}

func TestCheckout_Rejections(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(context.Background(), CheckoutInput{
			UserID: f.userID, PaymentMode: pricing.ModeFull,
		})
		if !errors.Is(err, orders.ErrCartEmpty) {
			t.Errorf("expected ErrCartEmpty, got %v", err)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		f := newFixture(t)
		f.seedCartItem(t, 999, true)
		_, err := f.svc.Checkout(context.Background(), CheckoutInput{
			UserID: f.userID, PaymentMode: "emi",
		})
		if !errors.Is(err, pricing.ErrInvalidMode) {
			t.Errorf("expected ErrInvalidMode, got %v", err)
		}
	})

	t.Run("half mode against unwilling product", func(t *testing.T) {
		f := newFixture(t)
		f.seedCartItem(t, 999, false)
		_, err := f.svc.Checkout(context.Background(), CheckoutInput{
			UserID: f.userID, PaymentMode: pricing.ModeHalf,
		})
		if !errors.Is(err, pricing.ErrHalfNotAllowed) {
			t.Errorf("expected ErrHalfNotAllowed, got %v", err)
		}
	})

	t.Run("product went inactive", func(t *testing.T) {
		f := newFixture(t)
		p := f.seedCartItem(t, 999, true)
		if err := f.db.Model(&catalog.Product{}).Where("id = ?", p.ID).
			Update("status", catalog.StatusInactive).Error; err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		_, err := f.svc.Checkout(context.Background(), CheckoutInput{
			UserID: f.userID, PaymentMode: pricing.ModeFull,
		})
		if !errors.Is(err, orders.ErrProductUnavailable) {
			t.Errorf("expected ErrProductUnavailable, got %v", err)
		}
	})
}

func TestCheckout_GatewayFailureLeavesNoOrder(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 999, true)
	f.gateway.fail = true

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{
		UserID: f.userID, PaymentMode: pricing.ModeFull,
	})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}

	var n int64
	f.db.Model(&orders.Order{}).Count(&n)
	if n != 0 {
		t.Errorf("gateway failure must not leave an order, found %d", n)
	}
	f.db.Model(&cart.CartItem{}).Where("user_id = ?", f.userID).Count(&n)
	if n != 1 {
		t.Errorf("cart must survive a failed checkout, found %d rows", n)
	}
}

func TestVerifyPayment_SettlesOnce(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 999, true)
	res := f.checkout(t, pricing.ModeHalf)

	first, err := f.verify(res.Payment.GatewayOrderID, "valid")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if first.AlreadyVerified {
		t.Errorf("first verify must not report already-verified")
	}
	if first.Order.AmountPaid != 500 || first.Order.Status != orders.StatusPartialPaid {
		t.Errorf("after advance: paid=%d status=%s", first.Order.AmountPaid, first.Order.Status)
	}
	if first.Attempt.Status != StatusVerified || first.Attempt.VerifiedAt == nil {
		t.Errorf("attempt not settled: %+v", first.Attempt)
	}
	if f.mail.Count() != 1 {
		t.Errorf("expected 1 receipt mail, got %d", f.mail.Count())
	}

	// retry with the same callback: no double apply, no second receipt
	second, err := f.verify(res.Payment.GatewayOrderID, "valid")
	if err != nil {
		t.Fatalf("retry verify: %v", err)
	}
	if !second.AlreadyVerified {
		t.Errorf("retry must take the idempotent path")
	}
	if second.Order.AmountPaid != 500 {
		t.Errorf("retry must not re-apply, paid=%d", second.Order.AmountPaid)
	}
	if f.mail.Count() != 1 {
		t.Errorf("retry must not resend the receipt, got %d", f.mail.Count())
	}

	var entries int64
	f.db.Model(&orders.LedgerEntry{}).Where("order_id = ?", first.Order.ID).Count(&entries)
	if entries != 1 {
		t.Errorf("expected 1 ledger entry, got %d", entries)
	}
}

func TestVerifyPayment_UnknownGatewayOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.verify("order_stub_does_not_exist", "valid")
	if !errors.Is(err, ErrUnknownAttempt) {
		t.Errorf("expected ErrUnknownAttempt, got %v", err)
	}
}

func TestVerifyPayment_SignatureMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 999, true)
	res := f.checkout(t, pricing.ModeFull)

	_, err := f.verify(res.Payment.GatewayOrderID, "forged")
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}

	var att PaymentAttempt
	if err := f.db.First(&att, "gateway_order_id = ?", res.Payment.GatewayOrderID).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if att.Status != StatusFailed {
		t.Errorf("expected attempt marked failed, got %s", att.Status)
	}

	var ord orders.Order
	if err := f.db.First(&ord, "id = ?", res.Order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if ord.AmountPaid != 0 || ord.Status != orders.StatusPending {
		t.Errorf("order must be untouched by a forged callback: %+v", ord)
	}

	// a failed attempt is terminal even for a later genuine signature
	if _, err := f.verify(res.Payment.GatewayOrderID, "valid"); !errors.Is(err, ErrUnknownAttempt) {
		t.Errorf("expected ErrUnknownAttempt on failed attempt, got %v", err)
	}
	if f.mail.Count() != 0 {
		t.Errorf("no receipt for rejected callbacks, got %d", f.mail.Count())
	}
}

func TestVerifyPayment_ConcurrentCallbacks(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 1000, true)
	res := f.checkout(t, pricing.ModeFull)

	const callers = 8
	results := make([]VerifyResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.verify(res.Payment.GatewayOrderID, "valid")
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: %v", i, errs[i])
			continue
		}
		if !results[i].AlreadyVerified {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("exactly one caller must win the transition, got %d", wins)
	}

	var ord orders.Order
	if err := f.db.First(&ord, "id = ?", res.Order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if ord.AmountPaid != 1000 || ord.Status != orders.StatusPaid {
		t.Errorf("amount must apply exactly once: paid=%d status=%s", ord.AmountPaid, ord.Status)
	}
	if f.mail.Count() != 1 {
		t.Errorf("expected exactly 1 receipt, got %d", f.mail.Count())
	}
}

func TestPayPending_RemainderFlow(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 999, true)
	res := f.checkout(t, pricing.ModeHalf)

	// remainder blocked while the advance attempt is still live
	_, err := f.svc.PayPending(context.Background(), f.userID, res.Order.Code)
	if !errors.Is(err, ErrNothingPending) {
		t.Fatalf("expected ErrNothingPending while advance is open, got %v", err)
	}

	if _, err := f.verify(res.Payment.GatewayOrderID, "valid"); err != nil {
		t.Fatalf("verify advance: %v", err)
	}

	pend, err := f.svc.PayPending(context.Background(), f.userID, res.Order.Code)
	if err != nil {
		t.Fatalf("pay pending: %v", err)
	}
	if pend.Payment.AmountPaise != 49900 {
		t.Errorf("expected remainder of 49900 paise, got %d", pend.Payment.AmountPaise)
	}

	if _, err := f.verify(pend.Payment.GatewayOrderID, "valid"); err != nil {
		t.Fatalf("verify remainder: %v", err)
	}

	var ord orders.Order
	if err := f.db.First(&ord, "id = ?", res.Order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if ord.AmountPaid != 999 || ord.Status != orders.StatusPaid {
		t.Errorf("after both legs: paid=%d status=%s", ord.AmountPaid, ord.Status)
	}

	// nothing left to pay
	if _, err := f.svc.PayPending(context.Background(), f.userID, res.Order.Code); !errors.Is(err, ErrNothingPending) {
		t.Errorf("expected ErrNothingPending on settled order, got %v", err)
	}
}

func TestPayPending_Guards(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 999, true)
	res := f.checkout(t, pricing.ModeHalf)

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.PayPending(context.Background(), f.userID, "KJ-19700101-00001")
		if !errors.Is(err, orders.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := f.svc.PayPending(context.Background(), uuid.NewString(), res.Order.Code)
		if !errors.Is(err, ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("cancelled order not payable", func(t *testing.T) {
		if err := f.db.Model(&orders.Order{}).Where("id = ?", res.Order.ID).
			Update("status", orders.StatusCancelled).Error; err != nil {
			t.Fatalf("cancel: %v", err)
		}
		_, err := f.svc.PayPending(context.Background(), f.userID, res.Order.Code)
		if !errors.Is(err, ErrOrderNotPayable) {
			t.Errorf("expected ErrOrderNotPayable, got %v", err)
		}
	})
}

func TestPayPending_StaleInitiatedAttemptExpires(t *testing.T) {
	f := newFixture(t)
	f.svc.SetPendingTTL(30 * time.Minute)
	f.seedCartItem(t, 1000, true)
	res := f.checkout(t, pricing.ModeHalf)

	// abandoned gateway order: initiated, never verified, past the TTL
	stale := time.Now().Add(-time.Hour)
	if err := f.db.Model(&PaymentAttempt{}).
		Where("gateway_order_id = ?", res.Payment.GatewayOrderID).
		Update("created_at", stale).Error; err != nil {
		t.Fatalf("backdate attempt: %v", err)
	}

	pend, err := f.svc.PayPending(context.Background(), f.userID, res.Order.Code)
	if err != nil {
		t.Fatalf("expected stale attempt to stop blocking, got %v", err)
	}
	if pend.Payment.AmountPaise != 100000 {
		t.Errorf("full balance still owed, expected 100000 paise, got %d", pend.Payment.AmountPaise)
	}
}

func TestCheckout_OrderCodesAreSequentialPerDay(t *testing.T) {
	f := newFixture(t)
	f.seedCartItem(t, 500, true)
	first := f.checkout(t, pricing.ModeFull)

	f.seedCartItem(t, 700, true)
	second := f.checkout(t, pricing.ModeFull)

	day := time.Now().Format("20060102")
	wantPrefix := "KJ-" + day + "-"
	if first.Order.Code != wantPrefix+"00001" {
		t.Errorf("expected %s00001, got %s", wantPrefix, first.Order.Code)
	}
	if second.Order.Code != wantPrefix+"00002" {
		t.Errorf("expected %s00002, got %s", wantPrefix, second.Order.Code)
	}
}
