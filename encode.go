package flac

import (
	"crypto/md5"
	"hash"
	"io"

	"github.com/go-flac/flac/frame"
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/meta"
)

// Encoder writes a FLAC stream: the signature, a StreamInfo block (patched
// up at Close if the sink is seekable), any extra metadata blocks, and then
// one audio frame per WriteBlock call.
type Encoder struct {
	sink io.Writer
	bw   *bits.Writer
	cfg  searchConfig

	minBlockSize uint16
	maxBlockSize uint16
	computeMD5   bool

	nchannels     uint8
	bitsPerSample uint8
	sampleRate    uint32

	frameNum     uint64
	nsamples     uint64
	blockSizeMin uint16
	blockSizeMax uint16
	frameSizeMin uint32
	frameSizeMax uint32
	md5sum       hash.Hash
}

// NewEncoder writes the FLAC signature and a placeholder StreamInfo block
// (plus any extra metadata blocks) to w, and returns an Encoder ready for
// WriteBlock. sampleRate/nchannels/bitsPerSample describe every block that
// will be passed to WriteBlock. cfg bounds the prediction search and block
// framing; see Config and DefaultConfig. extra, if non-empty, is written
// verbatim after StreamInfo; the caller must set each block's Header.Length
// to match its body and must not include a StreamInfo block.
func NewEncoder(w io.Writer, sampleRate uint32, nchannels, bitsPerSample uint8, cfg Config, extra []*meta.Block) (*Encoder, error) {
	bw := bits.NewWriter(w)
	if err := bw.WriteFully([]byte(signature)); err != nil {
		return nil, err
	}

	placeholder := &meta.StreamInfo{
		SampleRate:    sampleRate,
		NChannels:     nchannels,
		BitsPerSample: bitsPerSample,
	}
	hdr := &meta.Header{IsLast: len(extra) == 0, Type: meta.TypeStreamInfo, Length: 34}
	block := &meta.Block{Header: hdr, Body: placeholder}
	if err := block.Encode(bw); err != nil {
		return nil, err
	}

	for i, b := range extra {
		b.Header.IsLast = i == len(extra)-1
		if err := b.Encode(bw); err != nil {
			return nil, err
		}
	}

	enc := &Encoder{
		sink:          w,
		bw:            bw,
		cfg:           cfg.searchConfig(),
		minBlockSize:  cfg.MinBlockSize,
		maxBlockSize:  cfg.MaxBlockSize,
		computeMD5:    cfg.ComputeMD5,
		nchannels:     nchannels,
		bitsPerSample: bitsPerSample,
		sampleRate:    sampleRate,
	}
	if enc.computeMD5 {
		enc.md5sum = md5.New()
	}
	return enc, nil
}

// WriteBlock encodes one block of samples (one slice per channel, all the
// same length) as a single audio frame.
func (e *Encoder) WriteBlock(channels [][]int64) error {
	if len(channels) != int(e.nchannels) {
		return New(InvalidArgument, "flac: WriteBlock: expected %d channels, got %d", e.nchannels, len(channels))
	}
	blockSize := len(channels[0])
	for _, c := range channels {
		if len(c) != blockSize {
			return New(InvalidArgument, "flac: WriteBlock: channels have mismatched lengths")
		}
	}
	// MinBlockSize is not enforced here: WriteBlock cannot know whether a
	// given call is the stream's final block, which is exempt from it.
	if e.maxBlockSize != 0 && blockSize > int(e.maxBlockSize) {
		return New(InvalidArgument, "flac: WriteBlock: block size %d above configured maximum %d", blockSize, e.maxBlockSize)
	}

	ch, subframes, subBps, err := chooseChannels(channels, e.bitsPerSample, e.cfg)
	if err != nil {
		return err
	}
	hdr := &frame.Header{
		HasFixedBlockSize: true,
		BlockSize:         uint16(blockSize),
		SampleRate:        e.sampleRate,
		Channels:          ch,
		BitsPerSample:     e.bitsPerSample,
		Num:               e.frameNum,
	}

	before := e.bw.BytePosition()
	if err := frame.Encode(e.bw, hdr, subframes, subBps); err != nil {
		return err
	}
	frameSize := uint32(e.bw.BytePosition() - before)

	e.frameNum++
	e.nsamples += uint64(blockSize)
	if e.blockSizeMin == 0 || uint16(blockSize) < e.blockSizeMin {
		e.blockSizeMin = uint16(blockSize)
	}
	if uint16(blockSize) > e.blockSizeMax {
		e.blockSizeMax = uint16(blockSize)
	}
	if e.frameSizeMin == 0 || frameSize < e.frameSizeMin {
		e.frameSizeMin = frameSize
	}
	if frameSize > e.frameSizeMax {
		e.frameSizeMax = frameSize
	}
	if e.computeMD5 {
		writeInterleavedMD5(e.md5sum, channels, e.bitsPerSample)
	}
	return nil
}

// Close flushes any buffered frame data and, if the sink supports
// io.WriteSeeker, seeks back to the StreamInfo block (immediately after the
// 4-byte signature and 4-byte block header) and rewrites it with the final
// sample/frame-size/block-size statistics, and the MD5 sum unless
// Config.ComputeMD5 is false (in which case MD5sum is left all-zero). Sinks
// that cannot seek keep the all-zero placeholder values written by
// NewEncoder.
func (e *Encoder) Close() error {
	if err := e.bw.Close(); err != nil {
		return err
	}

	seeker, ok := e.sink.(io.WriteSeeker)
	if !ok {
		return nil
	}

	si := &meta.StreamInfo{
		BlockSizeMin:  e.blockSizeMin,
		BlockSizeMax:  e.blockSizeMax,
		FrameSizeMin:  e.frameSizeMin,
		FrameSizeMax:  e.frameSizeMax,
		SampleRate:    e.sampleRate,
		NChannels:     e.nchannels,
		BitsPerSample: e.bitsPerSample,
		NSamples:      e.nsamples,
	}
	if e.computeMD5 {
		copy(si.MD5sum[:], e.md5sum.Sum(nil))
	}

	if _, err := seeker.Seek(4+4, io.SeekStart); err != nil {
		return Wrap(IoFailure, err)
	}
	patch := bits.NewWriter(seeker)
	if err := si.Encode(patch); err != nil {
		return err
	}
	return patch.Close()
}

// writeInterleavedMD5 folds one encoded block into the running MD5 over raw
// little-endian interleaved PCM, matching StreamInfo's checksum convention.
func writeInterleavedMD5(h hash.Hash, channels [][]int64, bitsPerSample uint8) {
	nch := len(channels)
	n := len(channels[0])
	bytesPerSample := int(bitsPerSample+7) / 8
	buf := make([]byte, n*nch*bytesPerSample)
	pos := 0
	for i := 0; i < n; i++ {
		for ch := 0; ch < nch; ch++ {
			v := uint64(channels[ch][i])
			for b := 0; b < bytesPerSample; b++ {
				buf[pos] = byte(v >> uint(8*b))
				pos++
			}
		}
	}
	h.Write(buf)
}
