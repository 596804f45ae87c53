package bits_test

import (
	"bytes"
	"testing"

	"github.com/go-flac/flac/internal/bits"
)

func TestUnary(t *testing.T) {
	buf := new(bytes.Buffer)
	bw := bits.NewWriter(buf)

	var want uint64
	for ; want < 1000; want++ {
		if err := bw.WriteUnary(want); err != nil {
			t.Fatalf("error writing unary: %v", err)
		}
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("error closing the writer: %v", err)
	}

	br := bits.NewReader(buf)
	for want = 0; want < 1000; want++ {
		got, err := br.ReadUnary()
		if err != nil {
			t.Fatalf("error reading unary (want=%d): %v", want, err)
		}
		if got != want {
			t.Fatalf("unary mismatch: got %d, want %d", got, want)
		}
	}
}
