package meta_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	flacbits "github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/meta"
)

func roundTrip(t *testing.T, block *meta.Block) *meta.Block {
	t.Helper()
	buf := new(bytes.Buffer)
	bw := flacbits.NewWriter(buf)
	if err := block.Encode(bw); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	br := flacbits.NewReader(buf)
	got, err := meta.Parse(br)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return got
}

func TestStreamInfoRoundTrip(t *testing.T) {
	si := &meta.StreamInfo{
		BlockSizeMin:  4096,
		BlockSizeMax:  4096,
		FrameSizeMin:  1000,
		FrameSizeMax:  8000,
		SampleRate:    44100,
		NChannels:     2,
		BitsPerSample: 16,
		NSamples:      123456,
		MD5sum:        [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
	}
	block := &meta.Block{
		Header: &meta.Header{IsLast: true, Type: meta.TypeStreamInfo, Length: 34},
		Body:   si,
	}
	got := roundTrip(t, block)
	gotSI, ok := got.Body.(*meta.StreamInfo)
	if !ok {
		t.Fatalf("expected *meta.StreamInfo, got %T", got.Body)
	}
	if diff := cmp.Diff(si, gotSI); diff != "" {
		t.Fatalf("StreamInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestSeekTableRoundTrip(t *testing.T) {
	st := &meta.SeekTable{
		Points: []meta.SeekPoint{
			{SampleNum: 0, Offset: 0, NSamples: 4096},
			{SampleNum: 4096, Offset: 8192, NSamples: 4096},
			{SampleNum: 0xFFFFFFFFFFFFFFFF, Offset: 0, NSamples: 0},
		},
	}
	block := &meta.Block{
		Header: &meta.Header{Type: meta.TypeSeekTable, Length: 18 * 3},
		Body:   st,
	}
	got := roundTrip(t, block)
	gotST, ok := got.Body.(*meta.SeekTable)
	if !ok {
		t.Fatalf("expected *meta.SeekTable, got %T", got.Body)
	}
	if diff := cmp.Diff(st, gotST); diff != "" {
		t.Fatalf("SeekTable mismatch (-want +got):\n%s", diff)
	}
}

func TestVorbisCommentRoundTrip(t *testing.T) {
	vc := &meta.VorbisComment{
		Vendor: "reference libFLAC 1.4.3",
		Entries: []meta.VorbisEntry{
			{Name: "ARTIST", Value: "Aphex Twin"},
			{Name: "TITLE", Value: "Xtal"},
		},
	}
	buf := new(bytes.Buffer)
	bw := flacbits.NewWriter(buf)
	if err := vc.Encode(bw); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	length := buf.Len()

	block := &meta.Block{
		Header: &meta.Header{Type: meta.TypeVorbisComment, Length: length},
		Body:   vc,
	}
	got := roundTrip(t, block)
	gotVC, ok := got.Body.(*meta.VorbisComment)
	if !ok {
		t.Fatalf("expected *meta.VorbisComment, got %T", got.Body)
	}
	if diff := cmp.Diff(vc, gotVC); diff != "" {
		t.Fatalf("VorbisComment mismatch (-want +got):\n%s", diff)
	}
}

func TestPaddingRoundTrip(t *testing.T) {
	block := &meta.Block{
		Header: &meta.Header{Type: meta.TypePadding, Length: 16},
	}
	got := roundTrip(t, block)
	if got.Body != nil {
		t.Fatalf("expected nil Body for padding, got %T", got.Body)
	}
}
