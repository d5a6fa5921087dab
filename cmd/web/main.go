package main

import (
	"context"
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	apphttp "github.com/neha-5456/kaagjee/internal/http"
	"github.com/neha-5456/kaagjee/internal/mailer"
	"github.com/neha-5456/kaagjee/internal/modules/payments"
	"github.com/neha-5456/kaagjee/internal/storage"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	st, err := storage.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("storage setup: %v", err)
	}
	logger.Info("storage ready", "driver", st.Driver)

	opts := apphttp.Options{
		Provider: payments.ProviderFromEnv(),
		Storage:  st.Storage,
		MailFrom: os.Getenv("MAIL_FROM"),
	}
	if smtp := mailer.NewSMTPFromEnv(); smtp.Configured() {
		opts.Mailer = smtp
	}

	r := apphttp.NewRouter(logger, db, opts)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("listening", "port", port, "gateway", opts.Provider.Name())
	_ = r.Run(":" + port)
}
