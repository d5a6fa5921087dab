package cart

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Insert(ctx context.Context, item *CartItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isDup(err) {
			return ErrDuplicateSubmission
		}
		return err
	}
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]CartItem, error) {
	var items []CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *Repo) ListByUserAndIDs(ctx context.Context, userID string, ids []string) ([]CartItem, error) {
	var items []CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *Repo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&CartItem{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (r *Repo) Remove(ctx context.Context, userID, itemID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, itemID).
		Delete(&CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&CartItem{}).Error
}

// isDup: gorm translates driver duplicate-key errors when TranslateError is
// on; the raw MySQL 1062 check stays as a fallback for plain configs.
func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
