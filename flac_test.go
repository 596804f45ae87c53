package flac_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-flac/flac"
)

func encodeToTemp(t *testing.T, sampleRate uint32, nchannels, bps uint8, blocks [][][]int64) string {
	t.Helper()
	return encodeToTempWithConfig(t, sampleRate, nchannels, bps, flac.DefaultConfig(), blocks)
}

func encodeToTempWithConfig(t *testing.T, sampleRate uint32, nchannels, bps uint8, cfg flac.Config, blocks [][][]int64) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.flac")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	enc, err := flac.NewEncoder(f, sampleRate, nchannels, bps, cfg, nil)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	for _, block := range blocks {
		if err := enc.WriteBlock(block); err != nil {
			t.Fatalf("WriteBlock: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return f.Name()
}

func TestEncodeDecodeRoundTripMono(t *testing.T) {
	n := 128
	samples := make([]int64, n)
	for i := range samples {
		samples[i] = int64(i%200) - 100
	}
	path := encodeToTemp(t, 44100, 1, 16, [][][]int64{{samples}})

	s, err := flac.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	defer s.Close()

	if s.Info.SampleRate != 44100 {
		t.Fatalf("sample rate: want 44100, got %d", s.Info.SampleRate)
	}
	if s.Info.NSamples != uint64(n) {
		t.Fatalf("nsamples: want %d, got %d", n, s.Info.NSamples)
	}
	if s.MD5Status != flac.StatusOK {
		t.Fatalf("MD5Status: want OK, got %v", s.MD5Status)
	}
}

func TestEncodeDecodeRoundTripStereoMultiBlock(t *testing.T) {
	blockSize := 64
	nblocks := 3
	var blocks [][][]int64
	for b := 0; b < nblocks; b++ {
		l := make([]int64, blockSize)
		r := make([]int64, blockSize)
		for i := range l {
			l[i] = int64((b+1)*i%300) - 150
			r[i] = int64((b+2)*i%250) - 125
		}
		blocks = append(blocks, [][]int64{l, r})
	}
	path := encodeToTemp(t, 48000, 2, 16, blocks)

	s, err := flac.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	defer s.Close()

	if s.Info.NChannels != 2 {
		t.Fatalf("nchannels: want 2, got %d", s.Info.NChannels)
	}
	want := uint64(blockSize * nblocks)
	if s.Info.NSamples != want {
		t.Fatalf("nsamples: want %d, got %d", want, s.Info.NSamples)
	}
	if s.MD5Status != flac.StatusOK {
		t.Fatalf("MD5Status: want OK, got %v", s.MD5Status)
	}
}

func TestEncodeDecodeConstantBlock(t *testing.T) {
	n := 32
	samples := make([]int64, n)
	for i := range samples {
		samples[i] = 42
	}
	path := encodeToTemp(t, 44100, 1, 16, [][][]int64{{samples}})

	s, err := flac.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	defer s.Close()
	if s.MD5Status != flac.StatusOK {
		t.Fatalf("MD5Status: want OK, got %v", s.MD5Status)
	}
}

func TestStreamSeekWithoutSeekTable(t *testing.T) {
	blockSize := 64
	nblocks := 4
	var blocks [][][]int64
	for b := 0; b < nblocks; b++ {
		samples := make([]int64, blockSize)
		for i := range samples {
			samples[i] = int64(b*1000 + i)
		}
		blocks = append(blocks, [][]int64{samples})
	}
	path := encodeToTemp(t, 44100, 1, 16, blocks)

	s, err := flac.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	target := uint64(2*blockSize + 5)
	if err := s.Seek(target); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	f, err := s.Next()
	if err != nil {
		t.Fatalf("Next after Seek: %v", err)
	}
	if f.Samples[0][0] != 2000 {
		t.Fatalf("expected frame starting at sample value 2000, got %d", f.Samples[0][0])
	}
}

func TestEncodeSkipMD5(t *testing.T) {
	n := 64
	samples := make([]int64, n)
	for i := range samples {
		samples[i] = int64(i%50) - 25
	}
	cfg := flac.DefaultConfig()
	cfg.ComputeMD5 = false
	path := encodeToTempWithConfig(t, 44100, 1, 16, cfg, [][][]int64{{samples}})

	s, err := flac.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	defer s.Close()
	if s.MD5Status != flac.StatusSkipped {
		t.Fatalf("MD5Status: want Skipped, got %v", s.MD5Status)
	}
}

func TestEncodeSubsetOnlyFixed(t *testing.T) {
	blockSize := 96
	l := make([]int64, blockSize)
	r := make([]int64, blockSize)
	for i := range l {
		l[i] = int64(i%180) - 90
		r[i] = int64(i%160) - 80
	}
	cfg := flac.DefaultConfig()
	cfg.SubsetMode = flac.SubsetOnlyFixed
	path := encodeToTempWithConfig(t, 44100, 2, 16, cfg, [][][]int64{{l, r}})

	s, err := flac.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	defer s.Close()
	if s.MD5Status != flac.StatusOK {
		t.Fatalf("MD5Status: want OK, got %v", s.MD5Status)
	}
}

func TestParseFileBadMagic(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "*.flac")
	require.NoError(t, err)
	_, err = f.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = flac.ParseFile(f.Name())
	require.True(t, flac.Is(err, flac.BadMagic), "expected BadMagic error, got %v", err)
}
