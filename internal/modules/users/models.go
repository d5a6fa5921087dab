package users

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID           string    `gorm:"type:char(36);primaryKey"`
	Phone        string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_users_phone"`
	Email        string    `gorm:"type:varchar(255)"`
	FullName     string    `gorm:"type:varchar(200)"`
	PasswordHash []byte    `gorm:"type:varbinary(72);not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:'customer'"`
	CreatedAt    time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt    time.Time `gorm:"type:datetime(3);not null"`
}

func (User) TableName() string { return "users" }

// Session is a database-backed bearer session. The raw token goes to the
// client; only its SHA-256 lives in the row.
type Session struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	UserID     string    `gorm:"type:char(36);not null;index:ix_sessions_user_id"`
	TokenHash  []byte    `gorm:"type:binary(32);not null;uniqueIndex:ux_sessions_token_hash"`
	ExpiresAt  time.Time `gorm:"type:datetime(3);not null"`
	CreatedAt  time.Time `gorm:"type:datetime(3);not null"`
	LastSeenAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Session) TableName() string { return "sessions" }
