// Package bits implements the bit-granular reader and writer the codec uses
// for every metadata, frame and subframe field, layered on top of
// github.com/icza/bitio, with running CRC-8/CRC-16 hashes over the bytes
// actually consumed or produced.
package bits

import (
	"io"

	"github.com/icza/bitio"

	"github.com/go-flac/flac/internal/hashutil/crc16"
	"github.com/go-flac/flac/internal/hashutil/crc8"
	"github.com/go-flac/flac/internal/xerr"
)

// Reader is a bit-granular reader over an underlying byte source. It keeps
// running CRC-8 and CRC-16 hashes over the bytes consumed since the last call
// to ResetCRCs, so frame header and footer checksums can be verified without
// a second pass over the stream.
type Reader struct {
	br  *bitio.Reader
	h8  *crc8.Hash8
	h16 *crc16.Hash16
	pos uint8 // bits consumed in the current byte; 0 when byte-aligned
	n   int64 // total bytes consumed
}

type countingWriter struct {
	n *int64
}

func (c countingWriter) Write(p []byte) (int, error) {
	*c.n += int64(len(p))
	return len(p), nil
}

// NewReader returns a Reader consuming bytes from r.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{h8: crc8.New(), h16: crc16.New()}
	tee := io.TeeReader(r, io.MultiWriter(rd.h8, rd.h16, countingWriter{&rd.n}))
	rd.br = bitio.NewReader(byteTee{tee})
	return rd
}

// byteTee is an io.ByteReader over the hashing tee, so bitio reads from it
// byte by byte instead of through a read-ahead buffer; the running CRCs and
// byte count then cover only the bytes actually consumed.
type byteTee struct{ io.Reader }

func (t byteTee) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(t.Reader, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func wrapEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return xerr.Wrap(xerr.UnexpectedEOF, err)
	}
	return xerr.Wrap(xerr.IoFailure, err)
}

// IsAligned reports whether the reader is positioned on a byte boundary.
func (r *Reader) IsAligned() bool {
	return r.pos == 0
}

// Read reads n bits, 0 <= n <= 64, zero-extended into the returned value.
// It is the low-level primitive unary and field decoding build on.
func (r *Reader) Read(n uint8) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	v, err := r.br.ReadBits(n)
	if err != nil {
		return 0, wrapEOF(err)
	}
	r.pos = uint8((uint(r.pos) + uint(n)) % 8)
	return v, nil
}

// ReadUint reads an n-bit (n in [0,32]) zero-extended unsigned field.
func (r *Reader) ReadUint(n uint) (uint64, error) {
	if n > 32 {
		return 0, xerr.New(xerr.InvalidArgument, "bits: ReadUint: n=%d out of range [0,32]", n)
	}
	return r.Read(uint8(n))
}

// ReadSigned reads an n-bit (n in [0,32]) two's-complement signed field.
func (r *Reader) ReadSigned(n uint) (int64, error) {
	if n > 32 {
		return 0, xerr.New(xerr.InvalidArgument, "bits: ReadSigned: n=%d out of range [0,32]", n)
	}
	if n == 0 {
		return 0, nil
	}
	v, err := r.Read(uint8(n))
	if err != nil {
		return 0, err
	}
	if n == 32 {
		return int64(int32(v)), nil
	}
	return IntN(v, n), nil
}

// ReadBool reads a single bit as a boolean.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.Read(1)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadByte reads a single byte. The reader must be byte-aligned.
func (r *Reader) ReadByte() (byte, error) {
	if !r.IsAligned() {
		return 0, xerr.New(xerr.InvalidArgument, "bits: ReadByte: reader is not byte-aligned")
	}
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, wrapEOF(err)
	}
	return b, nil
}

// ReadFully reads exactly len(buf) bytes into buf. The reader must be
// byte-aligned.
func (r *Reader) ReadFully(buf []byte) error {
	if !r.IsAligned() {
		return xerr.New(xerr.InvalidArgument, "bits: ReadFully: reader is not byte-aligned")
	}
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return wrapEOF(err)
	}
	return nil
}

// Align discards any unconsumed bits in the current byte, advancing to the
// next byte boundary.
func (r *Reader) Align() {
	r.br.Align()
	r.pos = 0
}

// ResetCRCs clears the running CRC-8 and CRC-16 hashes. The reader must be
// byte-aligned.
func (r *Reader) ResetCRCs() error {
	if !r.IsAligned() {
		return xerr.New(xerr.InvalidArgument, "bits: ResetCRCs: reader is not byte-aligned")
	}
	r.h8.Reset()
	r.h16.Reset()
	return nil
}

// CRC8 returns the CRC-8 over the bytes consumed since the last ResetCRCs.
// The reader must be byte-aligned.
func (r *Reader) CRC8() (byte, error) {
	if !r.IsAligned() {
		return 0, xerr.New(xerr.InvalidArgument, "bits: CRC8: reader is not byte-aligned")
	}
	return r.h8.Sum8(), nil
}

// CRC16 returns the CRC-16 over the bytes consumed since the last
// ResetCRCs. The reader must be byte-aligned.
func (r *Reader) CRC16() (uint16, error) {
	if !r.IsAligned() {
		return 0, xerr.New(xerr.InvalidArgument, "bits: CRC16: reader is not byte-aligned")
	}
	return r.h16.Sum16(), nil
}

// BytePosition returns the total number of bytes consumed so far.
func (r *Reader) BytePosition() int64 {
	return r.n
}
