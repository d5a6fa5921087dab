package orders

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListByUserParams struct {
	UserID   string
	Page     int
	PageSize int
	Status   string // optional filter
}

type ListByUserItem struct {
	Order Order
	Count int
}

type ListByUserResult struct {
	Items []ListByUserItem
	Total int64
}

func (r *Repo) ListByUser(ctx context.Context, in ListByUserParams) (ListByUserResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	status := strings.TrimSpace(in.Status)

	q := r.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", in.UserID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListByUserResult{}, err
	}

	var rows []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&rows).Error; err != nil {
		return ListByUserResult{}, err
	}

	items := make([]ListByUserItem, len(rows))
	for i, o := range rows {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderItem{}).Where("order_id = ?", o.ID).Count(&count).Error; err != nil {
			count = 0
		}
		items[i] = ListByUserItem{Order: o, Count: int(count)}
	}

	return ListByUserResult{Items: items, Total: total}, nil
}

func (r *Repo) GetByCode(ctx context.Context, code string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "code = ?", code).Error
	return o, err
}

func (r *Repo) GetByCodeWithItems(ctx context.Context, code string) (Order, []OrderItem, error) {
	o, err := r.GetByCode(ctx, code)
	if err != nil {
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", o.ID).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

// PendingPayments lists the user's orders that still owe money. Cancelled
// orders owe nothing by definition.
func (r *Repo) PendingPayments(ctx context.Context, userID string) ([]Order, error) {
	var rows []Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND amount_paid < total_amount AND status <> ?", userID, StatusCancelled).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repo) ListAll(ctx context.Context, status string, page, size int) ([]Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&Order{})
	if s := strings.TrimSpace(status); s != "" {
		q = q.Where("status = ?", s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Order
	err := q.Order("created_at DESC").Limit(size).Offset((page - 1) * size).Find(&rows).Error
	return rows, total, err
}
