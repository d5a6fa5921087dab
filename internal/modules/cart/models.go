package cart

import (
	"time"

	"gorm.io/datatypes"
)

// CartItem is one pending form submission the user intends to purchase. The
// fingerprint makes (user, submission) unique: re-submitting the same form
// for the same product is a conflict, not a second row.
type CartItem struct {
	ID             string         `gorm:"type:char(36);primaryKey"`
	UserID         string         `gorm:"type:char(36);not null;uniqueIndex:ux_cart_items_user_fp,priority:1;index:ix_cart_items_user_id"`
	ProductID      string         `gorm:"type:char(36);not null"`
	Fingerprint    string         `gorm:"type:char(64);not null;uniqueIndex:ux_cart_items_user_fp,priority:2"`
	PaymentOption  string         `gorm:"type:varchar(10);not null;default:'full'"`
	FormData       datatypes.JSON `gorm:"type:json;not null"`
	SchemaSnapshot datatypes.JSON `gorm:"type:json;not null"`
	Files          datatypes.JSON `gorm:"type:json"`
	State          string         `gorm:"type:varchar(100)"`
	City           string         `gorm:"type:varchar(100)"`
	CreatedAt      time.Time      `gorm:"type:datetime(3);not null"`
}

func (CartItem) TableName() string { return "cart_items" }
