package orders

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending     = "pending"
	StatusPartialPaid = "partial_paid"
	StatusPaid        = "paid"
	StatusProcessing  = "processing"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

// Order is the financial record for a checkout. Amounts are whole rupees.
// Status is never stored from client input: the payment-driven statuses are
// derived from amount_paid vs total_amount inside the ledger transition, and
// the operator statuses (processing/completed/cancelled) are set only by the
// admin transition and never overwritten by payment events.
type Order struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	Code        string `gorm:"type:varchar(20);not null;uniqueIndex:ux_orders_code"`
	UserID      string `gorm:"type:char(36);not null;index:ix_orders_user_id"`
	PaymentMode string `gorm:"type:varchar(10);not null"`
	Status      string `gorm:"type:varchar(20);not null;index:ix_orders_status"`
	TotalAmount int    `gorm:"not null"`
	AmountPaid  int    `gorm:"not null;default:0"`
	Currency    string `gorm:"type:char(3);not null;default:'INR'"`

	// customer snapshot at checkout time
	CustomerName  string `gorm:"type:varchar(200)"`
	CustomerEmail string `gorm:"type:varchar(255)"`
	CustomerPhone string `gorm:"type:varchar(20)"`
	CustomerNotes string `gorm:"type:text"`

	PaidAt      *time.Time `gorm:"type:datetime(3)"`
	CompletedAt *time.Time `gorm:"type:datetime(3)"`
	CreatedAt   time.Time  `gorm:"type:datetime(3);not null"`
	UpdatedAt   time.Time  `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

func (o Order) AmountPending() int { return o.TotalAmount - o.AmountPaid }

// OrderItem is an immutable snapshot of a cart item at checkout time.
type OrderItem struct {
	ID             string         `gorm:"type:char(36);primaryKey"`
	OrderID        string         `gorm:"type:char(36);not null;index:ix_order_items_order_id"`
	ProductID      string         `gorm:"type:char(36);not null"`
	ProductTitle   string         `gorm:"type:varchar(300);not null"`
	ProductSlug    string         `gorm:"type:varchar(350);not null"`
	UnitPrice      int            `gorm:"not null"`
	AdvanceAmount  int            `gorm:"not null"` // due-now leg for this item
	PaymentOption  string         `gorm:"type:varchar(10);not null"`
	FormData       datatypes.JSON `gorm:"type:json;not null"`
	SchemaSnapshot datatypes.JSON `gorm:"type:json;not null"`
	Files          datatypes.JSON `gorm:"type:json"`
	State          string         `gorm:"type:varchar(100)"`
	City           string         `gorm:"type:varchar(100)"`
	CreatedAt      time.Time      `gorm:"type:datetime(3);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// LedgerEntry is an append-only financial ledger row. One row per applied
// payment event, idempotent per (ref_type, ref_id, event).
type LedgerEntry struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	OrderID   string    `gorm:"type:char(36);not null;index:ix_ledger_entries_order_id"`
	Event     string    `gorm:"type:varchar(40);not null"`
	Amount    int       `gorm:"not null"`
	Currency  string    `gorm:"type:char(3);not null"`
	RefType   string    `gorm:"type:varchar(20);not null;index:ix_ledger_entries_ref,priority:1"`
	RefID     string    `gorm:"type:char(36);not null;index:ix_ledger_entries_ref,priority:2"`
	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// OrderStatusEvent records operator transitions for audit.
type OrderStatusEvent struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	OrderID     string    `gorm:"type:char(36);not null;index:ix_order_status_events_order_id"`
	ActorUserID string    `gorm:"type:char(36);not null"`
	Action      string    `gorm:"type:varchar(20);not null"`
	FromStatus  string    `gorm:"type:varchar(20);not null"`
	ToStatus    string    `gorm:"type:varchar(20);not null"`
	Note        *string   `gorm:"type:varchar(255)"`
	CreatedAt   time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderStatusEvent) TableName() string { return "order_status_events" }

// DeriveStatus is the single source of truth for payment-driven statuses.
func DeriveStatus(amountPaid, totalAmount int) string {
	switch {
	case amountPaid == 0:
		return StatusPending
	case amountPaid < totalAmount:
		return StatusPartialPaid
	default:
		return StatusPaid
	}
}

// paymentDriven lists the statuses the settlement engine may overwrite.
var paymentDriven = []string{StatusPending, StatusPartialPaid, StatusPaid}
