package bits

import "testing"

func TestZigZag(t *testing.T) {
	golden := []struct {
		x    int64
		want uint64
	}{
		{x: 0, want: 0},
		{x: -1, want: 1},
		{x: 1, want: 2},
		{x: -2, want: 3},
		{x: 2, want: 4},
		{x: -3, want: 5},
	}
	for _, g := range golden {
		got := EncodeZigZag(g.x)
		if got != g.want {
			t.Errorf("EncodeZigZag(%d): got %d, want %d", g.x, got, g.want)
			continue
		}
		back := DecodeZigZag(got)
		if back != g.x {
			t.Errorf("DecodeZigZag(%d): got %d, want %d", got, back, g.x)
		}
	}
}

func TestZigZagRoundTrip(t *testing.T) {
	for x := int64(-100000); x <= 100000; x += 37 {
		if got := DecodeZigZag(EncodeZigZag(x)); got != x {
			t.Fatalf("round-trip failed for x=%d: got %d", x, got)
		}
	}
}
