package catalog

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusDraft      = "draft"
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusComingSoon = "coming_soon"
)

// Product is a marketplace service. Prices are whole rupees. HalfPrice is an
// optional admin override for the advance leg; when zero the advance is
// computed as half of FullPrice.
type Product struct {
	ID               string         `gorm:"type:char(36);primaryKey"`
	Title            string         `gorm:"type:varchar(300);not null"`
	Slug             string         `gorm:"type:varchar(350);not null;uniqueIndex:ux_products_slug"`
	ShortDescription string         `gorm:"type:varchar(500)"`
	FullPrice        int            `gorm:"not null"`
	HalfPrice        int            `gorm:"not null;default:0"`
	AllowHalfPayment bool           `gorm:"not null;default:true"`
	Status           string         `gorm:"type:varchar(20);not null;index:ix_products_status"`
	FormTitle        string         `gorm:"type:varchar(200)"`
	FormSchema       datatypes.JSON `gorm:"type:json"`
	CreatedAt        time.Time      `gorm:"type:datetime(3);not null"`
	UpdatedAt        time.Time      `gorm:"type:datetime(3);not null"`
}

func (Product) TableName() string { return "products" }
