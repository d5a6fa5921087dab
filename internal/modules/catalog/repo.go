package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neha-5456/kaagjee/internal/shared/slug"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Create inserts a product, deriving the slug from the title when unset.
func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Slug == "" {
		p.Slug = slug.FromTitle(p.Title)
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) GetActive(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).First(&p, "id = ? AND status = ?", id, StatusActive).Error
	return p, err
}

func (r *Repo) GetActiveBySlug(ctx context.Context, slug string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).First(&p, "slug = ? AND status = ?", slug, StatusActive).Error
	return p, err
}

func (r *Repo) ListActive(ctx context.Context) ([]Product, error) {
	var out []Product
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
