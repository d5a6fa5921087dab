package pricing

import (
	"errors"
	"testing"

	"github.com/neha-5456/kaagjee/internal/modules/catalog"
)

func TestResolve_FullMode(t *testing.T) {
	p := catalog.Product{FullPrice: 999, AllowHalfPayment: true}

	s, err := Resolve(p, ModeFull)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.DueNow != 999 || s.Deferred != 0 || s.Total != 999 {
		t.Errorf("unexpected split: %+v", s)
	}
}

func TestResolve_HalfModeOddTotal(t *testing.T) {
	// 999 must split 500 + 499, never 499 + 499 or 500 + 500
	p := catalog.Product{FullPrice: 999, AllowHalfPayment: true}

	s, err := Resolve(p, ModeHalf)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.DueNow != 500 {
		t.Errorf("expected DueNow 500, got %d", s.DueNow)
	}
	if s.Deferred != 499 {
		t.Errorf("expected Deferred 499, got %d", s.Deferred)
	}
	if s.DueNow+s.Deferred != s.Total {
		t.Errorf("legs do not sum to total: %+v", s)
	}
}

func TestResolve_HalfModeEvenTotal(t *testing.T) {
	p := catalog.Product{FullPrice: 1000, AllowHalfPayment: true}

	s, err := Resolve(p, ModeHalf)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.DueNow != 500 || s.Deferred != 500 {
		t.Errorf("unexpected split: %+v", s)
	}
}

func TestResolve_HalfPriceOverride(t *testing.T) {
	t.Run("override honored when positive and below total", func(t *testing.T) {
		p := catalog.Product{FullPrice: 1000, HalfPrice: 300, AllowHalfPayment: true}
		s, err := Resolve(p, ModeHalf)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if s.DueNow != 300 || s.Deferred != 700 {
			t.Errorf("unexpected split: %+v", s)
		}
	})

	t.Run("override ignored when at or above total", func(t *testing.T) {
		p := catalog.Product{FullPrice: 1000, HalfPrice: 1000, AllowHalfPayment: true}
		s, err := Resolve(p, ModeHalf)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if s.DueNow != 500 {
			t.Errorf("expected rounded half 500, got %d", s.DueNow)
		}
	})

	t.Run("override ignored when zero", func(t *testing.T) {
		p := catalog.Product{FullPrice: 999, HalfPrice: 0, AllowHalfPayment: true}
		s, err := Resolve(p, ModeHalf)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if s.DueNow != 500 {
			t.Errorf("expected rounded half 500, got %d", s.DueNow)
		}
	})
}

func TestResolve_Errors(t *testing.T) {
	t.Run("half not allowed", func(t *testing.T) {
		p := catalog.Product{FullPrice: 1000, AllowHalfPayment: false}
		if _, err := Resolve(p, ModeHalf); !errors.Is(err, ErrHalfNotAllowed) {
			t.Errorf("expected ErrHalfNotAllowed, got %v", err)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		p := catalog.Product{FullPrice: 1000, AllowHalfPayment: true}
		if _, err := Resolve(p, "installments"); !errors.Is(err, ErrInvalidMode) {
			t.Errorf("expected ErrInvalidMode, got %v", err)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		p := catalog.Product{FullPrice: 0, AllowHalfPayment: true}
		if _, err := Resolve(p, ModeFull); !errors.Is(err, ErrZeroAmount) {
			t.Errorf("expected ErrZeroAmount, got %v", err)
		}
	})
}

func TestSum(t *testing.T) {
	splits := []Split{
		{DueNow: 500, Deferred: 499, Total: 999},
		{DueNow: 300, Deferred: 700, Total: 1000},
		{DueNow: 250, Deferred: 0, Total: 250},
	}

	got := Sum(splits)
	if got.DueNow != 1050 || got.Deferred != 1199 || got.Total != 2249 {
		t.Errorf("unexpected sum: %+v", got)
	}
	if got.DueNow+got.Deferred != got.Total {
		t.Errorf("legs do not sum to total: %+v", got)
	}
}
