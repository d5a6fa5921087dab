// Package pricing computes the amount due now and the amount deferred for an
// order, for full and 50%-advance payment modes. All amounts are whole
// rupees; paise conversion happens only at the gateway boundary.
package pricing

import (
	"errors"

	"github.com/neha-5456/kaagjee/internal/modules/catalog"
)

const (
	ModeFull = "full"
	ModeHalf = "half"
)

var (
	ErrInvalidMode    = errors.New("invalid payment mode")
	ErrZeroAmount     = errors.New("amount must be positive")
	ErrHalfNotAllowed = errors.New("half payment not allowed for this product")
)

// Split is the two legs of a payment plan. DueNow + Deferred == Total always:
// the advance leg is rounded half up and the deferred leg absorbs the
// remainder, so odd totals cannot leak a rupee.
type Split struct {
	DueNow   int
	Deferred int
	Total    int
}

func Resolve(p catalog.Product, mode string) (Split, error) {
	total := p.FullPrice
	if total <= 0 {
		return Split{}, ErrZeroAmount
	}

	switch mode {
	case ModeFull:
		return Split{DueNow: total, Deferred: 0, Total: total}, nil
	case ModeHalf:
		if !p.AllowHalfPayment {
			return Split{}, ErrHalfNotAllowed
		}
		due := halfRoundUp(total)
		if p.HalfPrice > 0 && p.HalfPrice < total {
			due = p.HalfPrice
		}
		return Split{DueNow: due, Deferred: total - due, Total: total}, nil
	default:
		return Split{}, ErrInvalidMode
	}
}

// Sum aggregates per-item splits for a multi-item checkout. Each item keeps
// its own advance leg, so overrides on individual products are preserved and
// the order-level legs still sum exactly.
func Sum(splits []Split) Split {
	var out Split
	for _, s := range splits {
		out.DueNow += s.DueNow
		out.Deferred += s.Deferred
		out.Total += s.Total
	}
	return out
}

func halfRoundUp(total int) int {
	return (total + 1) / 2
}
