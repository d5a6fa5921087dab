package cart

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/neha-5456/kaagjee/internal/forms"
	"github.com/neha-5456/kaagjee/internal/modules/catalog"
	"github.com/neha-5456/kaagjee/internal/modules/pricing"
)

type Service struct {
	repo    *Repo
	catalog *catalog.Repo
}

func NewService(db *gorm.DB) *Service {
	return &Service{repo: NewRepo(db), catalog: catalog.NewRepo(db)}
}

func (s *Service) Repo() *Repo { return s.repo }

type AddInput struct {
	ProductID     string
	PaymentOption string // full|half, preference carried to checkout
	FormData      map[string]string
	Files         []string // storage URLs already uploaded for file fields
	State         string
	City          string
}

type AddResult struct {
	Item        CartItem
	FieldErrors forms.FieldErrors // set only when err == ErrFormInvalid
}

// Add validates the submission against the product's form schema and puts it
// in the user's cart. Same submission twice is ErrDuplicateSubmission.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (AddResult, error) {
	product, err := s.catalog.GetActive(ctx, in.ProductID)
	if err != nil {
		return AddResult{}, err
	}

	schema, err := forms.ParseSchema(product.FormSchema)
	if err != nil {
		return AddResult{}, fmt.Errorf("product %s has malformed form schema: %w", product.ID, err)
	}

	if fieldErrs := forms.Validate(schema, in.FormData); fieldErrs != nil {
		return AddResult{FieldErrors: fieldErrs}, ErrFormInvalid
	}

	mode := in.PaymentOption
	if mode == "" {
		mode = pricing.ModeFull
	}
	if _, err := pricing.Resolve(product, mode); err != nil {
		return AddResult{}, err
	}

	formJSON, err := json.Marshal(in.FormData)
	if err != nil {
		return AddResult{}, err
	}
	filesJSON, err := json.Marshal(in.Files)
	if err != nil {
		return AddResult{}, err
	}

	item := CartItem{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProductID:      product.ID,
		Fingerprint:    Fingerprint(product.ID, in.FormData),
		PaymentOption:  mode,
		FormData:       datatypes.JSON(formJSON),
		SchemaSnapshot: product.FormSchema,
		Files:          datatypes.JSON(filesJSON),
		State:          in.State,
		City:           in.City,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.Insert(ctx, &item); err != nil {
		return AddResult{}, err
	}
	return AddResult{Item: item}, nil
}

type Line struct {
	Item    CartItem
	Product catalog.Product
}

// List returns the user's cart joined with current product data. Items whose
// product went inactive since submission are kept visible; checkout rejects
// them.
func (s *Service) List(ctx context.Context, userID string) ([]Line, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, items)
}

func (s *Service) Count(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountByUser(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	return s.repo.Remove(ctx, userID, itemID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

func (s *Service) join(ctx context.Context, items []CartItem) ([]Line, error) {
	if len(items) == 0 {
		return []Line{}, nil
	}

	ids := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	var products []catalog.Product
	if err := s.repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]Line, 0, len(items))
	for _, it := range items {
		out = append(out, Line{Item: it, Product: byID[it.ProductID]})
	}
	return out, nil
}

// Fingerprint hashes product id plus the canonical (key-sorted) form payload.
func Fingerprint(productID string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(productID))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(data[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
