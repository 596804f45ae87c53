package frame_test

import (
	"bytes"
	"testing"

	"github.com/go-flac/flac/frame"
	flacbits "github.com/go-flac/flac/internal/bits"
)

func encodeBlock(t *testing.T, ch frame.Channels, bps uint8, channels [][]int64, num uint64) []byte {
	t.Helper()
	subframes, subBps := frame.BuildSubframes(ch, bps, channels)
	for i, sf := range subframes {
		sf.Pred = frame.PredFixed
		sf.Order = 2
		if sf.Order >= sf.NSamples {
			sf.Order = 0
		}
		if err := sf.PlanSubframe(4); err != nil {
			t.Fatalf("PlanSubframe[%d]: %v", i, err)
		}
	}
	hdr := &frame.Header{
		HasFixedBlockSize: true,
		BlockSize:         uint16(len(channels[0])),
		SampleRate:        44100,
		Channels:          ch,
		BitsPerSample:     bps,
		Num:               num,
	}
	buf := new(bytes.Buffer)
	bw := flacbits.NewWriter(buf)
	if err := frame.Encode(bw, hdr, subframes, subBps); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestFrameRoundTripMono(t *testing.T) {
	n := 64
	samples := make([]int64, n)
	for i := range samples {
		samples[i] = int64(i%100) - 50
	}
	raw := encodeBlock(t, frame.ChannelsMono, 16, [][]int64{samples}, 0)

	br := flacbits.NewReader(bytes.NewReader(raw))
	f, err := frame.Parse(br, 44100, 16)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Samples) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(f.Samples))
	}
	for i, want := range samples {
		if got := f.Samples[0][i]; got != want {
			t.Fatalf("sample %d: want %d, got %d", i, want, got)
		}
	}
}

func TestFrameRoundTripStereoModes(t *testing.T) {
	n := 64
	l := make([]int64, n)
	r := make([]int64, n)
	for i := range l {
		l[i] = int64(i) - 10
		r[i] = int64(i)/2 - 5
	}
	modes := []frame.Channels{frame.ChannelsLR, frame.ChannelsLeftSide, frame.ChannelsSideRight, frame.ChannelsMidSide}
	for _, mode := range modes {
		raw := encodeBlock(t, mode, 16, [][]int64{l, r}, 0)
		br := flacbits.NewReader(bytes.NewReader(raw))
		f, err := frame.Parse(br, 44100, 16)
		if err != nil {
			t.Fatalf("mode %v: Parse: %v", mode, err)
		}
		for i := range l {
			if f.Samples[0][i] != l[i] || f.Samples[1][i] != r[i] {
				t.Fatalf("mode %v: sample %d mismatch: want (%d,%d), got (%d,%d)", mode, i, l[i], r[i], f.Samples[0][i], f.Samples[1][i])
			}
		}
	}
}

func TestFrameFooterCRCDetectsCorruption(t *testing.T) {
	n := 32
	samples := make([]int64, n)
	for i := range samples {
		samples[i] = int64(i)
	}
	raw := encodeBlock(t, frame.ChannelsMono, 16, [][]int64{samples}, 0)
	raw[len(raw)-1] ^= 0xFF

	br := flacbits.NewReader(bytes.NewReader(raw))
	if _, err := frame.Parse(br, 44100, 16); err == nil {
		t.Fatal("expected CRC mismatch error, got nil")
	}
}

func TestFrameHeaderBadSync(t *testing.T) {
	buf := make([]byte, 16)
	br := flacbits.NewReader(bytes.NewReader(buf))
	if _, err := frame.ParseHeader(br); err == nil {
		t.Fatal("expected bad sync error, got nil")
	}
}
