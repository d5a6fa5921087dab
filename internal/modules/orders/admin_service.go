package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminService drives the operator transitions (processing, completed,
// cancelled). These are side states for the settlement engine: once set,
// payment events never overwrite them.
type AdminService struct{ db *gorm.DB }

func NewAdminService(db *gorm.DB) *AdminService { return &AdminService{db: db} }

type TransitionInput struct {
	OrderCode   string
	ActorUserID string // admin user id
	Action      string // process|complete|cancel
	Note        string
}

func (s *AdminService) Transition(ctx context.Context, in TransitionInput) (Order, error) {
	if in.OrderCode == "" || in.ActorUserID == "" || in.Action == "" {
		return Order{}, ErrInvalidTransition
	}

	var out Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o Order
		if err := tx.WithContext(ctx).First(&o, "code = ?", in.OrderCode).Error; err != nil {
			return err
		}

		from := o.Status
		to, err := nextStatus(o, in.Action)
		if err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]any{"status": to, "updated_at": now}
		if to == StatusCompleted {
			updates["completed_at"] = &now
		}

		// optimistic guard: only move if nobody changed the status meanwhile
		res := tx.WithContext(ctx).Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		var notePtr *string
		if n := strings.TrimSpace(in.Note); n != "" {
			notePtr = &n
		}
		ev := OrderStatusEvent{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			ActorUserID: in.ActorUserID,
			Action:      in.Action,
			FromStatus:  from,
			ToStatus:    to,
			Note:        notePtr,
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).First(&out, "id = ?", o.ID).Error
	})
	return out, err
}

func nextStatus(o Order, action string) (string, error) {
	switch action {
	case "process":
		if o.Status == StatusPaid || o.Status == StatusPartialPaid {
			return StatusProcessing, nil
		}
		return "", ErrInvalidTransition
	case "complete":
		if o.Status == StatusProcessing {
			return StatusCompleted, nil
		}
		return "", ErrInvalidTransition
	case "cancel":
		// only while no money has been applied; refunds are out of scope
		if o.AmountPaid == 0 && o.Status == StatusPending {
			return StatusCancelled, nil
		}
		return "", ErrInvalidTransition
	default:
		return "", ErrInvalidTransition
	}
}
