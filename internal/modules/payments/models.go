package payments

import "time"

const (
	StatusInitiated = "initiated"
	StatusVerified  = "verified"
	StatusFailed    = "failed"
)

const (
	TypeFull      = "full"
	TypeHalf      = "half"
	TypeRemaining = "remaining"
)

// PaymentAttempt is one gateway order. A gateway order id verifies at most
// once, enforced by the unique index plus the conditional initiated→verified
// transition in the coordinator.
type PaymentAttempt struct {
	ID               string     `gorm:"type:char(36);primaryKey"`
	OrderID          string     `gorm:"type:char(36);not null;index:ix_payment_attempts_order_id"`
	Type             string     `gorm:"type:varchar(10);not null"`
	Provider         string     `gorm:"type:varchar(64);not null"`
	GatewayOrderID   string     `gorm:"type:varchar(100);not null;uniqueIndex:ux_payment_attempts_gw_order"`
	GatewayPaymentID *string    `gorm:"type:varchar(100)"`
	Amount           int        `gorm:"not null"` // expected amount, rupees
	Currency         string     `gorm:"type:char(3);not null"`
	Status           string     `gorm:"type:varchar(20);not null;index:ix_payment_attempts_status"`
	FailureReason    *string    `gorm:"type:varchar(255)"`
	VerifiedAt       *time.Time `gorm:"type:datetime(3)"`
	CreatedAt        time.Time  `gorm:"type:datetime(3);not null"`
	UpdatedAt        time.Time  `gorm:"type:datetime(3);not null"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }
