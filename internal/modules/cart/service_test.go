package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/neha-5456/kaagjee/internal/modules/catalog"
	"github.com/neha-5456/kaagjee/internal/modules/pricing"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&catalog.Product{}, &CartItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, schema string) catalog.Product {
	t.Helper()

	p := catalog.Product{
		ID:               uuid.NewString(),
		Title:            "PAN Card Application",
		Slug:             "pan-card-application-" + uuid.NewString()[:8],
		FullPrice:        499,
		AllowHalfPayment: true,
		Status:           catalog.StatusActive,
		FormSchema:       datatypes.JSON(schema),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

const panSchema = `[
	{"name":"full_name","type":"text","required":true},
	{"name":"mobile","type":"phone","required":true}
]`

func TestAdd_ValidSubmission(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProduct(t, db, panSchema)
	userID := uuid.NewString()

	res, err := svc.Add(context.Background(), userID, AddInput{
		ProductID: p.ID,
		FormData:  map[string]string{"full_name": "Ravi Kumar", "mobile": "9876543210"},
		State:     "Delhi",
		City:      "New Delhi",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if res.Item.ID == "" {
		t.Fatal("expected item id")
	}
	if res.Item.PaymentOption != pricing.ModeFull {
		t.Errorf("expected default payment option full, got %q", res.Item.PaymentOption)
	}

	n, err := svc.Count(context.Background(), userID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
}

func TestAdd_DuplicateSubmissionRejected(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProduct(t, db, panSchema)
	userID := uuid.NewString()

	in := AddInput{
		ProductID: p.ID,
		FormData:  map[string]string{"full_name": "Ravi Kumar", "mobile": "9876543210"},
	}
	if _, err := svc.Add(context.Background(), userID, in); err != nil {
		t.Fatalf("first Add: %v", err)
	}

	_, err := svc.Add(context.Background(), userID, in)
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}

	// a different answer is a different submission
	in.FormData = map[string]string{"full_name": "Ravi Kumar", "mobile": "9876543211"}
	if _, err := svc.Add(context.Background(), userID, in); err != nil {
		t.Fatalf("different payload Add: %v", err)
	}

	// and another user may submit the identical payload
	if _, err := svc.Add(context.Background(), uuid.NewString(), AddInput{
		ProductID: p.ID,
		FormData:  map[string]string{"full_name": "Ravi Kumar", "mobile": "9876543210"},
	}); err != nil {
		t.Fatalf("other user Add: %v", err)
	}
}

func TestAdd_SchemaValidation(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProduct(t, db, panSchema)

	res, err := svc.Add(context.Background(), uuid.NewString(), AddInput{
		ProductID: p.ID,
		FormData:  map[string]string{"full_name": "Ravi"},
	})
	if !errors.Is(err, ErrFormInvalid) {
		t.Fatalf("expected ErrFormInvalid, got %v", err)
	}
	if res.FieldErrors["mobile"] == "" {
		t.Errorf("expected field error for mobile, got %v", res.FieldErrors)
	}
}

func TestAdd_HalfModeRespectsProductFlag(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	p := seedProduct(t, db, panSchema)
	if err := db.Model(&catalog.Product{}).Where("id = ?", p.ID).
		Update("allow_half_payment", false).Error; err != nil {
		t.Fatalf("update product: %v", err)
	}

	_, err := svc.Add(context.Background(), uuid.NewString(), AddInput{
		ProductID:     p.ID,
		PaymentOption: pricing.ModeHalf,
		FormData:      map[string]string{"full_name": "Ravi", "mobile": "9876543210"},
	})
	if !errors.Is(err, pricing.ErrHalfNotAllowed) {
		t.Fatalf("expected ErrHalfNotAllowed, got %v", err)
	}
}

func TestAdd_InactiveProductRejected(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	p := seedProduct(t, db, panSchema)
	if err := db.Model(&catalog.Product{}).Where("id = ?", p.ID).
		Update("status", catalog.StatusInactive).Error; err != nil {
		t.Fatalf("update product: %v", err)
	}

	_, err := svc.Add(context.Background(), uuid.NewString(), AddInput{
		ProductID: p.ID,
		FormData:  map[string]string{"full_name": "Ravi", "mobile": "9876543210"},
	})
	if err == nil {
		t.Fatal("expected error for inactive product")
	}
}

func TestRemoveAndClear(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	p := seedProduct(t, db, panSchema)
	userID := uuid.NewString()

	res, err := svc.Add(context.Background(), userID, AddInput{
		ProductID: p.ID,
		FormData:  map[string]string{"full_name": "Ravi", "mobile": "9876543210"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	t.Run("remove someone else's item", func(t *testing.T) {
		err := svc.Remove(context.Background(), uuid.NewString(), res.Item.ID)
		if !errors.Is(err, ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("remove own item", func(t *testing.T) {
		if err := svc.Remove(context.Background(), userID, res.Item.ID); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		n, _ := svc.Count(context.Background(), userID)
		if n != 0 {
			t.Errorf("expected empty cart, got %d", n)
		}
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		if err := svc.Clear(context.Background(), userID); err != nil {
			t.Errorf("Clear on empty cart: %v", err)
		}
	})
}

func TestFingerprint_Canonical(t *testing.T) {
	a := Fingerprint("prod-1", map[string]string{"x": "1", "y": "2"})
	b := Fingerprint("prod-1", map[string]string{"y": "2", "x": "1"})
	if a != b {
		t.Errorf("key order must not change the fingerprint")
	}

	c := Fingerprint("prod-2", map[string]string{"x": "1", "y": "2"})
	if a == c {
		t.Errorf("different products must not collide")
	}

	// a value ending where the next key begins must not collide with the
	// concatenated form
	d := Fingerprint("prod-1", map[string]string{"x": "1y", "z": "2"})
	if a == d {
		t.Errorf("field boundaries must be delimited")
	}
}
