package rice_test

import (
	"bytes"
	"testing"

	flacbits "github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/rice"
)

func TestRoundTrip(t *testing.T) {
	const predOrder = 2
	const blockSize = 64
	residuals := make([]int64, blockSize-predOrder)
	for i := range residuals {
		residuals[i] = int64(i%7) - 3
	}

	plan, err := rice.BestPlan(residuals, predOrder, blockSize, 4)
	if err != nil {
		t.Fatalf("BestPlan: %v", err)
	}

	buf := new(bytes.Buffer)
	bw := flacbits.NewWriter(buf)
	if err := plan.Write(bw, residuals, predOrder, blockSize); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	br := flacbits.NewReader(buf)
	got, err := rice.Decode(br, predOrder, blockSize)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(residuals) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(residuals))
	}
	for i := range residuals {
		if got[i] != residuals[i] {
			t.Fatalf("residual[%d]: got %d, want %d", i, got[i], residuals[i])
		}
	}
}

func TestEscapePartition(t *testing.T) {
	const predOrder = 0
	const blockSize = 16
	residuals := make([]int64, blockSize)
	residuals[0] = 1 << 29
	for i := 1; i < blockSize; i++ {
		residuals[i] = int64(i)
	}

	plan, err := rice.BestPlan(residuals, predOrder, blockSize, 2)
	if err != nil {
		t.Fatalf("BestPlan: %v", err)
	}

	buf := new(bytes.Buffer)
	bw := flacbits.NewWriter(buf)
	if err := plan.Write(bw, residuals, predOrder, blockSize); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	br := flacbits.NewReader(buf)
	got, err := rice.Decode(br, predOrder, blockSize)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range residuals {
		if got[i] != residuals[i] {
			t.Fatalf("residual[%d]: got %d, want %d", i, got[i], residuals[i])
		}
	}

	foundEscape := false
	for _, p := range plan.Params {
		if p == 15 {
			foundEscape = true
		}
	}
	if !foundEscape {
		t.Fatalf("expected at least one escape partition for a residual of magnitude 2^29")
	}
}
