package lpc_test

import (
	"math"
	"testing"

	"github.com/go-flac/flac/lpc"
)

func sineBlock(n int) []int64 {
	samples := make([]int64, n)
	for i := range samples {
		samples[i] = int64(10000 * math.Sin(float64(i)*0.2))
	}
	return samples
}

func TestFitAllOrdersErrorDecreases(t *testing.T) {
	samples := sineBlock(256)
	fits, err := lpc.FitAllOrders(samples, 8)
	if err != nil {
		t.Fatalf("FitAllOrders: %v", err)
	}
	if len(fits) != 8 {
		t.Fatalf("expected 8 orders, got %d", len(fits))
	}
	for i, f := range fits {
		if f.Order != i+1 {
			t.Fatalf("order %d: expected Order=%d, got %d", i, i+1, f.Order)
		}
		if len(f.A) != f.Order {
			t.Fatalf("order %d: expected %d coefficients, got %d", i, f.Order, len(f.A))
		}
	}
	// A near-periodic signal should fit increasingly well at higher orders.
	if fits[7].Err > fits[0].Err {
		t.Fatalf("expected order-8 error (%v) <= order-1 error (%v)", fits[7].Err, fits[0].Err)
	}
}

func TestQuantisePrecisionBounds(t *testing.T) {
	a := []float64{1.9999, -0.5, 0.0001}
	q, err := lpc.Quantise(a, 12)
	if err != nil {
		t.Fatalf("Quantise: %v", err)
	}
	lo := -(int64(1) << 11)
	hi := int64(1)<<11 - 1
	for i, c := range q.Coeffs {
		if c < lo || c > hi {
			t.Fatalf("coefficient %d (%d) out of [%d,%d] range", i, c, lo, hi)
		}
	}
	if q.Shift < 0 {
		t.Fatalf("expected non-negative shift, got %d", q.Shift)
	}
}

func TestRoundingVariantsCount(t *testing.T) {
	a := []float64{1.4, 2.6, -0.5, 0.33, 1.1}
	variants := lpc.RoundingVariants(a, 12, 3)
	if len(variants) != 8 {
		t.Fatalf("expected 2^3=8 variants, got %d", len(variants))
	}
	for _, v := range variants {
		if len(v.Coeffs) != len(a) {
			t.Fatalf("variant has %d coefficients, want %d", len(v.Coeffs), len(a))
		}
	}
}

func TestFitTooShortBlock(t *testing.T) {
	if _, err := lpc.FitAllOrders([]int64{1, 2, 3}, 8); err == nil {
		t.Fatal("expected error for block shorter than order, got nil")
	}
}
