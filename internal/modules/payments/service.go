package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neha-5456/kaagjee/internal/mailer"
	"github.com/neha-5456/kaagjee/internal/modules/cart"
	"github.com/neha-5456/kaagjee/internal/modules/catalog"
	"github.com/neha-5456/kaagjee/internal/modules/orders"
	"github.com/neha-5456/kaagjee/internal/modules/pricing"
	"github.com/neha-5456/kaagjee/internal/shared/code"
	"github.com/neha-5456/kaagjee/internal/shared/keymutex"
)

const Currency = "INR"

// DefaultPendingTTL: an initiated attempt older than this no longer blocks a
// new remainder charge; the gateway order has long expired on its side.
const DefaultPendingTTL = 30 * time.Minute

// Service is the settlement coordinator: it is the only component that
// mutates order status, and it does so exactly once per payment event.
// Gateway calls run outside locks and transactions; local state transitions
// run under the per-order lock with conditional updates as the final guard.
type Service struct {
	db       *gorm.DB
	provider Provider
	ledger   *orders.Ledger
	carts    *cart.Repo
	codes    *code.Generator
	locks    *keymutex.KeyMutex
	logger   *slog.Logger

	mail       mailer.Service
	mailFrom   string
	pendingTTL time.Duration
}

func NewService(db *gorm.DB, p Provider) *Service {
	return &Service{
		db:         db,
		provider:   p,
		ledger:     orders.NewLedger(db),
		carts:      cart.NewRepo(db),
		codes:      code.NewGenerator(db),
		locks:      keymutex.New(),
		logger:     slog.Default(),
		pendingTTL: DefaultPendingTTL,
	}
}

func (s *Service) SetLogger(l *slog.Logger) { s.logger = l }

func (s *Service) SetMailer(m mailer.Service, from string) {
	s.mail = m
	s.mailFrom = from
}

func (s *Service) SetPendingTTL(d time.Duration) { s.pendingTTL = d }

type CheckoutInput struct {
	UserID      string
	ItemIDs     []string // empty = whole cart
	PaymentMode string   // full|half

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CustomerNotes string
}

// PaymentIntent is what the client needs to open the gateway checkout UI.
type PaymentIntent struct {
	AttemptID      string `json:"attempt_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	GatewayKey     string `json:"gateway_public_key"`
	AmountPaise    int    `json:"amount"` // smallest unit, gateway convention
	Currency       string `json:"currency"`
}

type CheckoutResult struct {
	Order   orders.Order
	Items   []orders.OrderItem
	Payment PaymentIntent
}

// Checkout converts the user's cart into an order plus one initiated payment
// attempt. The gateway is called before anything persists, so a gateway
// failure leaves no orphaned order; the cart rows are deleted in the same
// transaction that creates the order, so the cart clears only once the order
// and attempt are durable.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if in.PaymentMode != pricing.ModeFull && in.PaymentMode != pricing.ModeHalf {
		return CheckoutResult{}, pricing.ErrInvalidMode
	}

	items, err := s.loadCartItems(ctx, in)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(items) == 0 {
		return CheckoutResult{}, orders.ErrCartEmpty
	}

	split, lineItems, err := s.priceCart(ctx, items, in.PaymentMode)
	if err != nil {
		return CheckoutResult{}, err
	}

	orderCode, err := s.codes.Next(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}

	// Gateway call: no lock, no transaction, bounded by the client timeout.
	gw, err := s.provider.CreateOrder(ctx, CreateOrderRequest{
		AmountPaise: split.DueNow * 100,
		Currency:    Currency,
		Receipt:     orderCode,
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	attemptType := TypeFull
	if in.PaymentMode == pricing.ModeHalf {
		attemptType = TypeHalf
	}

	var out CheckoutResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := s.ledger.Create(ctx, tx, orders.NewOrder{
			Code:          orderCode,
			UserID:        in.UserID,
			PaymentMode:   in.PaymentMode,
			TotalAmount:   split.Total,
			Currency:      Currency,
			CustomerName:  in.CustomerName,
			CustomerEmail: in.CustomerEmail,
			CustomerPhone: in.CustomerPhone,
			CustomerNotes: in.CustomerNotes,
			Items:         lineItems,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		att := PaymentAttempt{
			ID:             uuid.NewString(),
			OrderID:        ord.ID,
			Type:           attemptType,
			Provider:       s.provider.Name(),
			GatewayOrderID: gw.GatewayOrderID,
			Amount:         split.DueNow,
			Currency:       Currency,
			Status:         StatusInitiated,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(&att).Error; err != nil {
			return err
		}

		// Consume the cart rows. A concurrent checkout racing on the same
		// items loses here and rolls back instead of double-ordering.
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		res := tx.WithContext(ctx).
			Where("user_id = ? AND id IN ?", in.UserID, ids).
			Delete(&cart.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return ErrCartChanged
		}

		var withItems []orders.OrderItem
		if err := tx.WithContext(ctx).Order("created_at ASC").Find(&withItems, "order_id = ?", ord.ID).Error; err != nil {
			return err
		}
		out = CheckoutResult{
			Order: ord,
			Items: withItems,
			Payment: PaymentIntent{
				AttemptID:      att.ID,
				GatewayOrderID: att.GatewayOrderID,
				GatewayKey:     s.provider.PublicKey(),
				AmountPaise:    att.Amount * 100,
				Currency:       att.Currency,
			},
		}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	s.logger.InfoContext(ctx, "checkout complete",
		"order_code", out.Order.Code,
		"user_id", in.UserID,
		"mode", in.PaymentMode,
		"total", out.Order.TotalAmount,
		"due_now", split.DueNow,
		"gateway_order_id", out.Payment.GatewayOrderID,
	)
	return out, nil
}

func (s *Service) loadCartItems(ctx context.Context, in CheckoutInput) ([]cart.CartItem, error) {
	if len(in.ItemIDs) == 0 {
		return s.carts.ListByUser(ctx, in.UserID)
	}
	items, err := s.carts.ListByUserAndIDs(ctx, in.UserID, in.ItemIDs)
	if err != nil {
		return nil, err
	}
	if len(items) != len(in.ItemIDs) {
		return nil, cart.ErrItemNotFound
	}
	return items, nil
}

func (s *Service) priceCart(ctx context.Context, items []cart.CartItem, mode string) (pricing.Split, []orders.OrderItem, error) {
	splits := make([]pricing.Split, 0, len(items))
	lines := make([]orders.OrderItem, 0, len(items))

	for _, it := range items {
		var p catalog.Product
		if err := s.db.WithContext(ctx).First(&p, "id = ?", it.ProductID).Error; err != nil {
			return pricing.Split{}, nil, err
		}
		if p.Status != catalog.StatusActive {
			return pricing.Split{}, nil, fmt.Errorf("%w: %s", orders.ErrProductUnavailable, p.Slug)
		}

		sp, err := pricing.Resolve(p, mode)
		if err != nil {
			return pricing.Split{}, nil, err
		}
		splits = append(splits, sp)

		lines = append(lines, orders.OrderItem{
			ProductID:      p.ID,
			ProductTitle:   p.Title,
			ProductSlug:    p.Slug,
			UnitPrice:      sp.Total,
			AdvanceAmount:  sp.DueNow,
			PaymentOption:  mode,
			FormData:       it.FormData,
			SchemaSnapshot: it.SchemaSnapshot,
			Files:          it.Files,
			State:          it.State,
			City:           it.City,
		})
	}
	return pricing.Sum(splits), lines, nil
}

type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type VerifyResult struct {
	Order           orders.Order
	Attempt         PaymentAttempt
	AlreadyVerified bool
}

// VerifyPayment converts a client callback into a verified payment fact.
// Duplicate calls (client retry, webhook racing the client) settle exactly
// once: the initiated→verified transition is a conditional update, and a
// caller who loses the race takes the idempotent path.
func (s *Service) VerifyPayment(ctx context.Context, in VerifyInput) (VerifyResult, error) {
	var att PaymentAttempt
	if err := s.db.WithContext(ctx).First(&att, "gateway_order_id = ?", in.GatewayOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VerifyResult{}, ErrUnknownAttempt
		}
		return VerifyResult{}, err
	}

	if att.Status == StatusVerified {
		return s.idempotentResult(ctx, att)
	}
	if att.Status == StatusFailed {
		// a definitively failed attempt is no longer verifiable
		return VerifyResult{}, ErrUnknownAttempt
	}

	if !s.provider.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		now := time.Now()
		reason := "signature verification failed"
		_ = s.db.WithContext(ctx).Model(&PaymentAttempt{}).
			Where("id = ? AND status = ?", att.ID, StatusInitiated).
			Updates(map[string]any{
				"status":         StatusFailed,
				"failure_reason": reason,
				"updated_at":     now,
			}).Error

		// audit trail; the order is untouched
		s.logger.WarnContext(ctx, "payment signature mismatch",
			"gateway_order_id", in.GatewayOrderID,
			"gateway_payment_id", in.GatewayPaymentID,
			"order_id", att.OrderID,
		)
		return VerifyResult{}, ErrSignatureMismatch
	}

	s.locks.Lock(att.OrderID)
	defer s.locks.Unlock(att.OrderID)

	var (
		ord        orders.Order
		idempotent bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.WithContext(ctx).Model(&PaymentAttempt{}).
			Where("id = ? AND status = ?", att.ID, StatusInitiated).
			Updates(map[string]any{
				"status":             StatusVerified,
				"gateway_payment_id": in.GatewayPaymentID,
				"verified_at":        &now,
				"updated_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race: reload and decide
			if err := tx.WithContext(ctx).First(&att, "id = ?", att.ID).Error; err != nil {
				return err
			}
			if att.Status != StatusVerified {
				return ErrUnknownAttempt
			}
			idempotent = true
			return tx.WithContext(ctx).First(&ord, "id = ?", att.OrderID).Error
		}

		// verified and recorded in one transaction: a crash between the two
		// rolls both back and the same verify call can safely retry
		var err error
		ord, err = s.ledger.ApplyPayment(ctx, tx, att.OrderID, att.ID, att.Amount)
		return err
	})
	if err != nil {
		return VerifyResult{}, err
	}

	if err := s.db.WithContext(ctx).First(&att, "id = ?", att.ID).Error; err != nil {
		return VerifyResult{}, err
	}

	if !idempotent {
		s.logger.InfoContext(ctx, "payment verified",
			"order_code", ord.Code,
			"gateway_order_id", att.GatewayOrderID,
			"amount", att.Amount,
			"amount_paid", ord.AmountPaid,
			"status", ord.Status,
		)
		s.sendReceipt(ctx, ord, att)
	}

	return VerifyResult{Order: ord, Attempt: att, AlreadyVerified: idempotent}, nil
}

func (s *Service) idempotentResult(ctx context.Context, att PaymentAttempt) (VerifyResult, error) {
	var ord orders.Order
	if err := s.db.WithContext(ctx).First(&ord, "id = ?", att.OrderID).Error; err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Order: ord, Attempt: att, AlreadyVerified: true}, nil
}

type PayPendingResult struct {
	Order   orders.Order
	Payment PaymentIntent
}

// PayPending opens a new attempt for the unpaid remainder of an order. At
// most one live initiated attempt may exist per order; the check runs once
// up front for a fast answer and again inside the lock after the gateway
// call, which is the authoritative one.
func (s *Service) PayPending(ctx context.Context, userID, orderCode string) (PayPendingResult, error) {
	var ord orders.Order
	if err := s.db.WithContext(ctx).First(&ord, "code = ?", orderCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PayPendingResult{}, orders.ErrOrderNotFound
		}
		return PayPendingResult{}, err
	}

	if ord.UserID != userID {
		return PayPendingResult{}, ErrNotOwner
	}
	if ord.Status == orders.StatusCancelled || ord.Status == orders.StatusCompleted {
		return PayPendingResult{}, ErrOrderNotPayable
	}

	remaining := ord.AmountPending()
	if remaining <= 0 {
		return PayPendingResult{}, ErrNothingPending
	}
	open, err := s.hasLiveInitiated(ctx, s.db, ord.ID)
	if err != nil {
		return PayPendingResult{}, err
	}
	if open {
		return PayPendingResult{}, ErrNothingPending
	}

	gw, err := s.provider.CreateOrder(ctx, CreateOrderRequest{
		AmountPaise: remaining * 100,
		Currency:    Currency,
		Receipt:     ord.Code,
	})
	if err != nil {
		return PayPendingResult{}, err
	}

	s.locks.Lock(ord.ID)
	defer s.locks.Unlock(ord.ID)

	var att PaymentAttempt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// re-check under the lock: a verify or a second pay-pending may have
		// landed while the gateway call was in flight
		if err := tx.WithContext(ctx).First(&ord, "id = ?", ord.ID).Error; err != nil {
			return err
		}
		remaining = ord.AmountPending()
		if remaining <= 0 {
			return ErrNothingPending
		}
		open, err := s.hasLiveInitiated(ctx, tx, ord.ID)
		if err != nil {
			return err
		}
		if open {
			return ErrNothingPending
		}

		now := time.Now()
		att = PaymentAttempt{
			ID:             uuid.NewString(),
			OrderID:        ord.ID,
			Type:           TypeRemaining,
			Provider:       s.provider.Name(),
			GatewayOrderID: gw.GatewayOrderID,
			Amount:         remaining,
			Currency:       Currency,
			Status:         StatusInitiated,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.WithContext(ctx).Create(&att).Error
	})
	if err != nil {
		return PayPendingResult{}, err
	}

	s.logger.InfoContext(ctx, "pending payment initiated",
		"order_code", ord.Code,
		"amount", att.Amount,
		"gateway_order_id", att.GatewayOrderID,
	)
	return PayPendingResult{
		Order: ord,
		Payment: PaymentIntent{
			AttemptID:      att.ID,
			GatewayOrderID: att.GatewayOrderID,
			GatewayKey:     s.provider.PublicKey(),
			AmountPaise:    att.Amount * 100,
			Currency:       att.Currency,
		},
	}, nil
}

// AttemptsForOrder returns the attempt history, newest first.
func (s *Service) AttemptsForOrder(ctx context.Context, orderID string) ([]PaymentAttempt, error) {
	var out []PaymentAttempt
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Service) hasLiveInitiated(ctx context.Context, tx *gorm.DB, orderID string) (bool, error) {
	q := tx.WithContext(ctx).Model(&PaymentAttempt{}).
		Where("order_id = ? AND status = ?", orderID, StatusInitiated)
	if s.pendingTTL > 0 {
		q = q.Where("created_at > ?", time.Now().Add(-s.pendingTTL))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Service) sendReceipt(ctx context.Context, ord orders.Order, att PaymentAttempt) {
	if s.mail == nil || ord.CustomerEmail == "" {
		return
	}

	body := fmt.Sprintf(
		"We received your payment of ₹%d for order %s.\n\nPaid so far: ₹%d of ₹%d.\n",
		att.Amount, ord.Code, ord.AmountPaid, ord.TotalAmount,
	)
	if pending := ord.AmountPending(); pending > 0 {
		body += fmt.Sprintf("Remaining balance: ₹%d. You can pay it any time from your orders page.\n", pending)
	}

	err := s.mail.Send(ctx, mailer.Email{
		From:     s.mailFrom,
		To:       []string{ord.CustomerEmail},
		Subject:  fmt.Sprintf("Payment received for order %s", ord.Code),
		TextBody: body,
	})
	if err != nil {
		// receipts are best effort, settlement already committed
		s.logger.WarnContext(ctx, "receipt mail failed", "order_code", ord.Code, "err", err)
	}
}
