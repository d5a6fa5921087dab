package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/neha-5456/kaagjee/internal/modules/cart"
	"github.com/neha-5456/kaagjee/internal/modules/catalog"
	"github.com/neha-5456/kaagjee/internal/modules/orders"
	"github.com/neha-5456/kaagjee/internal/modules/payments"
	"github.com/neha-5456/kaagjee/internal/modules/users"
	"github.com/neha-5456/kaagjee/internal/shared/code"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "kaagjee:kaagjee@tcp(localhost:3306)/kaagjee?parseTime=true&loc=Local"
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&users.User{},
		&users.Session{},
		&catalog.Product{},
		&cart.CartItem{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.LedgerEntry{},
		&orders.OrderStatusEvent{},
		&payments.PaymentAttempt{},
		&code.DayCounter{},
	); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	log.Println("✓ all tables migrated successfully")
}
