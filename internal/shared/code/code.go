// Package code issues order numbers of the form KJ-YYYYMMDD-NNNNN. The
// sequence is backed by a per-day counter row so numbers stay unique across
// instances; a number reserved for a checkout that later fails at the
// gateway is simply never used (gaps are fine, duplicates are not).
package code

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const Prefix = "KJ"

type DayCounter struct {
	Day string `gorm:"primaryKey;type:char(8)"`
	Seq int    `gorm:"not null"`
}

func (DayCounter) TableName() string { return "order_counters" }

type Generator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGenerator(db *gorm.DB) *Generator {
	return &Generator{db: db, now: time.Now}
}

// Next reserves and returns the next order number for today.
func (g *Generator) Next(ctx context.Context) (string, error) {
	day := g.now().Format("20060102")

	var seq int
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{"seq": gorm.Expr("seq + 1")}),
		}).Create(&DayCounter{Day: day, Seq: 1}).Error; err != nil {
			return err
		}

		var c DayCounter
		if err := tx.First(&c, "day = ?", day).Error; err != nil {
			return err
		}
		seq = c.Seq
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%05d", Prefix, day, seq), nil
}
