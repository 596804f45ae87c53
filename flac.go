// Package flac provides access to FLAC (Free Lossless Audio Codec)
// streams: decoding metadata and audio frames, and encoding PCM samples
// into a valid bitstream.
//
// The basic structure of a FLAC stream is:
//   - The four-byte signature "fLaC".
//   - The StreamInfo metadata block.
//   - Zero or more other metadata blocks.
//   - One or more audio frames.
package flac

import (
	"crypto/md5"
	"io"
	"os"

	"github.com/go-flac/flac/frame"
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/bufseekio"
	"github.com/go-flac/flac/meta"
)

const signature = "fLaC"

// Stream is a parsed (or partially parsed) FLAC bitstream.
type Stream struct {
	// Info is the mandatory StreamInfo metadata block.
	Info *meta.StreamInfo
	// Blocks holds every metadata block after StreamInfo, in file order.
	Blocks []*meta.Block
	// MD5Status reports the outcome of verifying the decoded PCM against
	// the StreamInfo MD5 sum, populated once ParseFrames (or Next, until
	// EOF) has run to completion.
	MD5Status Status

	br     *bits.Reader
	r      io.Reader
	seeker *bufseekio.ReadSeeker // non-nil when r is an io.ReadSeeker
	// audioStart is the byte offset of the first frame header, relative to
	// seeker; seek table offsets are relative to this point.
	audioStart int64
	md5sum     interface {
		io.Writer
		Sum([]byte) []byte
	}
	samplesSeen uint64
	// md5Valid is cleared by Seek: once decoding resumes mid-stream the
	// running MD5 no longer covers a prefix of the whole PCM stream.
	md5Valid bool
}

// ParseFile reads and fully parses the FLAC stream stored at path,
// including every metadata block and audio frame.
func ParseFile(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Wrap(IoFailure, err)
	}
	s, err := Parse(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// OpenFile opens the FLAC stream stored at path, verifying its signature
// and StreamInfo block but not yet decoding any frames. Call Next
// repeatedly, or ParseFrames, to decode audio. The caller must Close the
// returned Stream.
func OpenFile(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Wrap(IoFailure, err)
	}
	s, err := NewSeekStream(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Parse reads r as a FLAC stream and decodes every metadata block and
// audio frame it contains.
func Parse(r io.Reader) (*Stream, error) {
	s, err := NewSeekStream(r)
	if err != nil {
		return nil, err
	}
	if err := s.ParseFrames(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSeekStream validates the FLAC signature of r and decodes every
// metadata block, up to and including the one marked last. Call Next or ParseFrames
// to decode audio frames. If r also implements io.Seeker, the returned
// Stream supports Seek.
func NewSeekStream(r io.Reader) (*Stream, error) {
	s := &Stream{r: r, md5sum: md5.New(), md5Valid: true}
	var src io.Reader = r
	if rs, ok := r.(io.ReadSeeker); ok {
		s.seeker = bufseekio.NewReadSeeker(rs)
		src = s.seeker
	}
	br := bits.NewReader(src)
	s.br = br

	var magic [4]byte
	if err := br.ReadFully(magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != signature {
		return nil, New(BadMagic, "flac: invalid signature %q", magic[:])
	}

	isLast := false
	for !isLast {
		block, err := meta.Parse(br)
		if err != nil {
			return nil, err
		}
		isLast = block.Header.IsLast
		if block.Header.Type == meta.TypeStreamInfo {
			si, ok := block.Body.(*meta.StreamInfo)
			if !ok {
				return nil, New(DataFormat, "flac: first metadata block is not StreamInfo")
			}
			s.Info = si
			continue
		}
		s.Blocks = append(s.Blocks, block)
	}
	if s.Info == nil {
		return nil, New(DataFormat, "flac: stream has no StreamInfo block")
	}
	if s.seeker != nil {
		pos, err := s.seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, Wrap(IoFailure, err)
		}
		s.audioStart = pos
	}
	return s, nil
}

// Next decodes and returns the next audio frame, folding its samples into
// the running MD5 check. It returns io.EOF once every StreamInfo-declared
// sample has been consumed.
func (s *Stream) Next() (*frame.Frame, error) {
	if s.Info.NSamples != 0 && s.samplesSeen >= s.Info.NSamples {
		s.finishMD5()
		return nil, io.EOF
	}
	before := s.br.BytePosition()
	f, err := frame.Parse(s.br, s.Info.SampleRate, s.Info.BitsPerSample)
	if err != nil {
		// A streams with NSamples unknown (0) has no sample count to stop
		// at; a clean end of stream surfaces as an EOF hit on the very
		// first read of the next frame header, before any byte of it was
		// consumed. Anything that fails after consuming part of a frame is
		// real corruption, not a clean stop, and is returned as an error.
		if s.br.BytePosition() == before && Is(err, UnexpectedEOF) {
			s.finishMD5()
			return nil, io.EOF
		}
		return nil, err
	}
	writeFrameMD5(s.md5sum, f, s.Info.BitsPerSample)
	s.samplesSeen += uint64(len(f.Samples[0]))
	return f, nil
}

// ParseFrames decodes every remaining audio frame and verifies the
// decoded PCM against the StreamInfo MD5 sum (skipped if the stored hash
// is all-zero).
func (s *Stream) ParseFrames() error {
	for {
		_, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Seek repositions decoding so the next call to Next returns the frame
// containing sampleNum, using the stream's SeekTable when present and
// otherwise decode-skipping forward from the start of the audio data. It
// requires the Stream to have been opened from an io.ReadSeeker (OpenFile,
// or NewSeekStream/Parse over one). Seeking invalidates whole-stream MD5
// verification: MD5Status reports StatusSkipped from this point on.
func (s *Stream) Seek(sampleNum uint64) error {
	if s.seeker == nil {
		return New(InvalidArgument, "flac: Seek: stream was not opened from a seekable source")
	}
	s.md5Valid = false

	offset, startSample := s.bestSeekPoint(sampleNum)
	if _, err := s.seeker.Seek(s.audioStart+int64(offset), io.SeekStart); err != nil {
		return Wrap(IoFailure, err)
	}
	s.br = bits.NewReader(s.seeker)
	s.samplesSeen = startSample

	for s.samplesSeen+uint64(s.Info.BlockSizeMax) <= sampleNum {
		if _, err := s.Next(); err != nil {
			return err
		}
	}
	return nil
}

// bestSeekPoint returns the byte offset (relative to audioStart) and sample
// number of the seek table entry at or before sampleNum, or (0, 0) if no
// usable SeekTable is present.
func (s *Stream) bestSeekPoint(sampleNum uint64) (offset, startSample uint64) {
	for _, block := range s.Blocks {
		st, ok := block.Body.(*meta.SeekTable)
		if !ok {
			continue
		}
		for _, p := range st.Points {
			if p.SampleNum == invalidSeekSampleNum {
				continue
			}
			if p.SampleNum <= sampleNum && p.SampleNum >= startSample {
				startSample = p.SampleNum
				offset = p.Offset
			}
		}
	}
	return offset, startSample
}

const invalidSeekSampleNum = 0xFFFFFFFFFFFFFFFF

func (s *Stream) finishMD5() {
	allZero := true
	for _, b := range s.Info.MD5sum {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero || !s.md5Valid {
		s.MD5Status = StatusSkipped
		return
	}
	got := s.md5sum.Sum(nil)
	match := true
	for i, b := range got {
		if b != s.Info.MD5sum[i] {
			match = false
			break
		}
	}
	if match {
		s.MD5Status = StatusOK
	} else {
		s.MD5Status = StatusMismatch
	}
}

// Close releases the stream's underlying resource, if it is closeable.
func (s *Stream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
