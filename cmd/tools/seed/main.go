package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/neha-5456/kaagjee/internal/modules/catalog"
	"github.com/neha-5456/kaagjee/internal/modules/users"
)

// Seeds a development database: one admin account and a few services with
// form schemas, enough to click through the whole checkout flow.

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()

	if _, err := users.NewService(db).Register(ctx,
		"9000000001", "admin@kaagjee.in", "Kaagjee Admin", envOr("SEED_ADMIN_PASSWORD", "admin123"),
		users.RoleAdmin,
	); err != nil {
		log.Printf("admin user: %v (already seeded?)", err)
	} else {
		log.Println("✓ admin user 9000000001")
	}

	repo := catalog.NewRepo(db)
	for _, p := range demoProducts() {
		p := p
		if err := repo.Create(ctx, &p); err != nil {
			log.Printf("product %q: %v (already seeded?)", p.Title, err)
			continue
		}
		log.Printf("✓ product %s (%s)", p.Title, p.Slug)
	}
}

func demoProducts() []catalog.Product {
	idSchema := datatypes.JSON(`[
		{"name":"full_name","label":"Full Name","type":"text","required":true,"max_len":100},
		{"name":"mobile","label":"Mobile Number","type":"phone","required":true},
		{"name":"email","label":"Email","type":"email","required":true},
		{"name":"aadhar","label":"Aadhar Number","type":"aadhar","required":true},
		{"name":"pincode","label":"Pincode","type":"pincode","required":true},
		{"name":"id_proof","label":"ID Proof","type":"file","required":false}
	]`)
	panSchema := datatypes.JSON(`[
		{"name":"full_name","label":"Full Name","type":"text","required":true,"max_len":100},
		{"name":"mobile","label":"Mobile Number","type":"phone","required":true},
		{"name":"dob","label":"Date of Birth","type":"date","required":true},
		{"name":"existing_pan","label":"Existing PAN (if correction)","type":"pan","required":false}
	]`)

	return []catalog.Product{
		{
			Title:            "PAN Card Application",
			ShortDescription: "New PAN card or corrections, filed within 2 working days.",
			FullPrice:        499,
			AllowHalfPayment: true,
			Status:           catalog.StatusActive,
			FormTitle:        "PAN Application Form",
			FormSchema:       panSchema,
		},
		{
			Title:            "Passport Assistance",
			ShortDescription: "End-to-end help with fresh passport applications.",
			FullPrice:        999,
			AllowHalfPayment: true,
			Status:           catalog.StatusActive,
			FormTitle:        "Passport Application Form",
			FormSchema:       idSchema,
		},
		{
			Title:            "GST Registration",
			ShortDescription: "GST registration for proprietors and small businesses.",
			FullPrice:        1499,
			HalfPrice:        600,
			AllowHalfPayment: true,
			Status:           catalog.StatusActive,
			FormTitle:        "GST Registration Form",
			FormSchema:       idSchema,
		},
		{
			Title:            "Police Clearance Certificate",
			ShortDescription: "PCC application support. Full payment only.",
			FullPrice:        799,
			AllowHalfPayment: false,
			Status:           catalog.StatusActive,
			FormTitle:        "PCC Application Form",
			FormSchema:       idSchema,
		},
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
