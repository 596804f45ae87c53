package bits

import (
	"io"

	"github.com/icza/bitio"

	"github.com/go-flac/flac/internal/hashutil/crc16"
	"github.com/go-flac/flac/internal/hashutil/crc8"
	"github.com/go-flac/flac/internal/xerr"
)

// Writer is a bit-granular writer over an underlying byte sink. It keeps
// running CRC-8 and CRC-16 hashes over the bytes produced since the last call
// to ResetCRCs.
type Writer struct {
	bw  *bitio.Writer
	h8  *crc8.Hash8
	h16 *crc16.Hash16
	pos uint8 // bits written into the current byte; 0 when byte-aligned
	n   int64 // total bytes flushed
}

// NewWriter returns a Writer producing bytes to w.
func NewWriter(w io.Writer) *Writer {
	bw := &Writer{h8: crc8.New(), h16: crc16.New()}
	tee := io.MultiWriter(w, bw.h8, bw.h16, countingWriter{&bw.n})
	bw.bw = bitio.NewWriter(&byteTeeWriter{tee})
	return bw
}

// byteTeeWriter is an io.ByteWriter over the hashing tee, so bitio writes to
// it directly instead of through its own buffer; the running CRCs and byte
// count then cover every byte as soon as it is complete.
type byteTeeWriter struct{ io.Writer }

func (t *byteTeeWriter) WriteByte(b byte) error {
	_, err := t.Write([]byte{b})
	return err
}

// Write writes the low n bits (0 <= n <= 64) of v.
func (w *Writer) Write(n uint8, v uint64) error {
	if n == 0 {
		return nil
	}
	if err := w.bw.WriteBits(v, n); err != nil {
		return xerr.Wrap(xerr.IoFailure, err)
	}
	w.pos = uint8((uint(w.pos) + uint(n)) % 8)
	return nil
}

// WriteUint writes an n-bit (n in [0,32]) unsigned field.
func (w *Writer) WriteUint(n uint, v uint64) error {
	if n > 32 {
		return xerr.New(xerr.InvalidArgument, "bits: WriteUint: n=%d out of range [0,32]", n)
	}
	return w.Write(uint8(n), v)
}

// WriteSigned writes an n-bit (n in [0,32]) two's-complement signed field.
func (w *Writer) WriteSigned(n uint, v int64) error {
	if n > 32 {
		return xerr.New(xerr.InvalidArgument, "bits: WriteSigned: n=%d out of range [0,32]", n)
	}
	if n == 0 {
		return nil
	}
	mask := uint64(1)<<n - 1
	return w.Write(uint8(n), uint64(v)&mask)
}

// WriteBool writes a single bit.
func (w *Writer) WriteBool(b bool) error {
	var v uint64
	if b {
		v = 1
	}
	return w.Write(1, v)
}

// WriteByte writes a single byte. The writer must be byte-aligned.
func (w *Writer) WriteByte(b byte) error {
	if !w.IsAligned() {
		return xerr.New(xerr.InvalidArgument, "bits: WriteByte: writer is not byte-aligned")
	}
	if err := w.bw.WriteByte(b); err != nil {
		return xerr.Wrap(xerr.IoFailure, err)
	}
	return nil
}

// WriteFully writes buf verbatim. The writer must be byte-aligned.
func (w *Writer) WriteFully(buf []byte) error {
	if !w.IsAligned() {
		return xerr.New(xerr.InvalidArgument, "bits: WriteFully: writer is not byte-aligned")
	}
	if _, err := w.bw.Write(buf); err != nil {
		return xerr.Wrap(xerr.IoFailure, err)
	}
	return nil
}

// IsAligned reports whether the writer is positioned on a byte boundary.
func (w *Writer) IsAligned() bool {
	return w.pos == 0
}

// Align pads the current byte with zero bits, advancing to the next byte
// boundary.
func (w *Writer) Align() error {
	if _, err := w.bw.Align(); err != nil {
		return xerr.Wrap(xerr.IoFailure, err)
	}
	w.pos = 0
	return nil
}

// ResetCRCs clears the running CRC-8 and CRC-16 hashes. The writer must be
// byte-aligned.
func (w *Writer) ResetCRCs() error {
	if !w.IsAligned() {
		return xerr.New(xerr.InvalidArgument, "bits: ResetCRCs: writer is not byte-aligned")
	}
	w.h8.Reset()
	w.h16.Reset()
	return nil
}

// CRC8 returns the CRC-8 over the bytes written since the last ResetCRCs.
// The writer must be byte-aligned.
func (w *Writer) CRC8() (byte, error) {
	if !w.IsAligned() {
		return 0, xerr.New(xerr.InvalidArgument, "bits: CRC8: writer is not byte-aligned")
	}
	return w.h8.Sum8(), nil
}

// CRC16 returns the CRC-16 over the bytes written since the last
// ResetCRCs. The writer must be byte-aligned.
func (w *Writer) CRC16() (uint16, error) {
	if !w.IsAligned() {
		return 0, xerr.New(xerr.InvalidArgument, "bits: CRC16: writer is not byte-aligned")
	}
	return w.h16.Sum16(), nil
}

// BytePosition returns the total number of bytes flushed so far.
func (w *Writer) BytePosition() int64 {
	return w.n
}

// Close flushes any pending bits (zero-padding the final byte) and closes
// the underlying bitio.Writer.
func (w *Writer) Close() error {
	if err := w.bw.Close(); err != nil {
		return xerr.Wrap(xerr.IoFailure, err)
	}
	w.pos = 0
	return nil
}
