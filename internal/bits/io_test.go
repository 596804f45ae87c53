package bits_test

import (
	"bytes"
	"testing"

	"github.com/go-flac/flac/internal/bits"
)

func TestReadWriteUint(t *testing.T) {
	widths := []uint{0, 1, 3, 7, 8, 13, 16, 24, 31, 32}
	buf := new(bytes.Buffer)
	bw := bits.NewWriter(buf)
	values := make([]uint64, len(widths))
	for i, n := range widths {
		v := uint64(0xFFFFFFFF) >> (32 - n)
		if n == 0 {
			v = 0
		}
		values[i] = v
		if err := bw.WriteUint(n, v); err != nil {
			t.Fatalf("WriteUint(%d): %v", n, err)
		}
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	br := bits.NewReader(buf)
	for i, n := range widths {
		got, err := br.ReadUint(n)
		if err != nil {
			t.Fatalf("ReadUint(%d): %v", n, err)
		}
		want := values[i] & (uint64(1)<<n - 1)
		if n == 32 {
			want = values[i]
		}
		if n == 0 {
			want = 0
		}
		if got != want {
			t.Fatalf("ReadUint(%d): got %d, want %d", n, got, want)
		}
	}
}

func TestCRC8OverConsumedBytes(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78}
	br := bits.NewReader(bytes.NewReader(data))
	if err := br.ResetCRCs(); err != nil {
		t.Fatalf("ResetCRCs: %v", err)
	}
	for range data {
		if _, err := br.ReadByte(); err != nil {
			t.Fatalf("ReadByte: %v", err)
		}
	}
	got, err := br.CRC8()
	if err != nil {
		t.Fatalf("CRC8: %v", err)
	}
	want := crc8Reference(data)
	if got != want {
		t.Fatalf("CRC8 mismatch: got %#x, want %#x", got, want)
	}
}

func crc8Reference(data []byte) byte {
	const poly = 0x07
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func TestMisalignedAccessRejected(t *testing.T) {
	buf := new(bytes.Buffer)
	bw := bits.NewWriter(buf)
	if err := bw.WriteUint(3, 0b101); err != nil {
		t.Fatalf("WriteUint: %v", err)
	}
	if err := bw.WriteByte(0x00); err == nil {
		t.Fatalf("expected error writing byte while unaligned")
	}
}
