package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger owns order creation and the amount_paid counter. All mutations run
// inside a transaction supplied by the coordinator so that the attempt
// transition and the increment commit or roll back together.
type Ledger struct{ db *gorm.DB }

func NewLedger(db *gorm.DB) *Ledger { return &Ledger{db: db} }

func (l *Ledger) DB() *gorm.DB { return l.db }

type NewOrder struct {
	Code          string
	UserID        string
	PaymentMode   string
	TotalAmount   int
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CustomerNotes string
	Items         []OrderItem
}

// Create persists a fresh pending order with its line-item snapshot.
func (l *Ledger) Create(ctx context.Context, tx *gorm.DB, in NewOrder) (Order, error) {
	now := time.Now()
	o := Order{
		ID:            uuid.NewString(),
		Code:          in.Code,
		UserID:        in.UserID,
		PaymentMode:   in.PaymentMode,
		Status:        StatusPending,
		TotalAmount:   in.TotalAmount,
		AmountPaid:    0,
		Currency:      in.Currency,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		CustomerNotes: in.CustomerNotes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(&o).Error; err != nil {
		return Order{}, err
	}

	for i := range in.Items {
		in.Items[i].ID = uuid.NewString()
		in.Items[i].OrderID = o.ID
		in.Items[i].CreatedAt = now
	}
	if len(in.Items) > 0 {
		if err := tx.WithContext(ctx).Create(&in.Items).Error; err != nil {
			return Order{}, err
		}
	}
	return o, nil
}

// ApplyPayment increments amount_paid by amount and recomputes the derived
// status, rejecting any increment that would push the counter past the
// total. The guard is a conditional UPDATE so two racing callers cannot both
// apply: the loser sees zero affected rows.
func (l *Ledger) ApplyPayment(ctx context.Context, tx *gorm.DB, orderID, attemptID string, amount int) (Order, error) {
	if amount <= 0 {
		return Order{}, ErrOverpayment
	}
	now := time.Now()

	res := tx.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND amount_paid + ? <= total_amount", orderID, amount).
		Updates(map[string]any{
			"amount_paid": gorm.Expr("amount_paid + ?", amount),
			"updated_at":  now,
		})
	if res.Error != nil {
		return Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := tx.WithContext(ctx).Model(&Order{}).Where("id = ?", orderID).Count(&exists).Error; err != nil {
			return Order{}, err
		}
		if exists == 0 {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, ErrOverpayment
	}

	var o Order
	if err := tx.WithContext(ctx).First(&o, "id = ?", orderID).Error; err != nil {
		return Order{}, err
	}

	// Recompute status, but never overwrite an operator status. The guard on
	// the current status keeps processing/completed/cancelled untouched even
	// if a late payment lands after fulfilment started.
	derived := DeriveStatus(o.AmountPaid, o.TotalAmount)
	updates := map[string]any{"status": derived, "updated_at": now}
	if derived == StatusPaid && o.PaidAt == nil {
		updates["paid_at"] = &now
	}
	if err := tx.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status IN ?", orderID, paymentDriven).
		Updates(updates).Error; err != nil {
		return Order{}, err
	}

	if err := ensureLedgerEntry(ctx, tx, LedgerEntry{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Event:     "payment_verified",
		Amount:    amount,
		Currency:  o.Currency,
		RefType:   "payment_attempt",
		RefID:     attemptID,
		CreatedAt: now,
	}); err != nil {
		return Order{}, err
	}

	if err := tx.WithContext(ctx).First(&o, "id = ?", orderID).Error; err != nil {
		return Order{}, err
	}
	return o, nil
}

func ensureLedgerEntry(ctx context.Context, tx *gorm.DB, e LedgerEntry) error {
	var cnt int64
	if err := tx.WithContext(ctx).
		Model(&LedgerEntry{}).
		Where("ref_type = ? AND ref_id = ? AND event = ?", e.RefType, e.RefID, e.Event).
		Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&e).Error
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrOrderNotFound)
}
