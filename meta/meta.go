// Package meta implements parsing and encoding of FLAC metadata blocks:
// StreamInfo, SeekTable, Application, VorbisComment, CueSheet, Picture and
// Padding.
package meta

import (
	"io"

	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// BlockType identifies the metadata block type carried by a Header.
type BlockType uint8

// Metadata block types, per the 7-bit type field of the block header.
const (
	TypeStreamInfo BlockType = iota
	TypePadding
	TypeApplication
	TypeSeekTable
	TypeVorbisComment
	TypeCueSheet
	TypePicture
)

var blockTypeName = map[BlockType]string{
	TypeStreamInfo:    "stream info",
	TypePadding:       "padding",
	TypeApplication:   "application",
	TypeSeekTable:     "seek table",
	TypeVorbisComment: "vorbis comment",
	TypeCueSheet:      "cue sheet",
	TypePicture:       "picture",
}

func (t BlockType) String() string {
	if s, ok := blockTypeName[t]; ok {
		return s
	}
	return "unknown"
}

// Header identifies the type and body length of a metadata block.
type Header struct {
	// IsLast is true if this is the last metadata block before the first
	// audio frame.
	IsLast bool
	// Type is the metadata block type. Values 7-126 are reserved, 127 is
	// invalid (it would collide with the frame sync code).
	Type BlockType
	// Length is the length in bytes of the block body.
	Length int
}

// ParseHeader reads and parses a metadata block header.
func ParseHeader(br *bits.Reader) (*Header, error) {
	isLastBit, err := br.ReadUint(1)
	if err != nil {
		return nil, err
	}
	typeBits, err := br.ReadUint(7)
	if err != nil {
		return nil, err
	}
	length, err := br.ReadUint(24)
	if err != nil {
		return nil, err
	}
	if typeBits >= 7 && typeBits <= 126 {
		return nil, xerr.New(xerr.ReservedValue, "meta: reserved block type %d", typeBits)
	}
	if typeBits == 127 {
		return nil, xerr.New(xerr.DataFormat, "meta: invalid block type 127 (collides with frame sync)")
	}
	return &Header{
		IsLast: isLastBit != 0,
		Type:   BlockType(typeBits),
		Length: int(length),
	}, nil
}

// Encode writes the metadata block header.
func (h *Header) Encode(bw *bits.Writer) error {
	var isLast uint64
	if h.IsLast {
		isLast = 1
	}
	if err := bw.WriteUint(1, isLast); err != nil {
		return err
	}
	if err := bw.WriteUint(7, uint64(h.Type)); err != nil {
		return err
	}
	return bw.WriteUint(24, uint64(h.Length))
}

// Block is a metadata block: a header plus a parsed or opaque body.
type Block struct {
	Header *Header
	// Body holds the typed block body: *StreamInfo, *SeekTable, *Application,
	// *VorbisComment, *CueSheet, *Picture, or nil for Padding. Unknown block
	// types (7-126 are rejected at header-parse time, so in practice this is
	// only reachable for future block types this library does not model)
	// are retained verbatim in Raw.
	Body interface{}
	// Raw holds the unparsed block body bytes when Body is nil and the type
	// is not Padding; used to round-trip block types this library does not
	// interpret.
	Raw []byte
}

// Parse reads a metadata block header and body from br.
func Parse(br *bits.Reader) (*Block, error) {
	h, err := ParseHeader(br)
	if err != nil {
		return nil, err
	}
	block := &Block{Header: h}
	cr := &countingReader{r: byteReader{br}}
	lr := bits.NewReader(io.LimitReader(cr, int64(h.Length)))
	switch h.Type {
	case TypeStreamInfo:
		block.Body, err = ParseStreamInfo(lr)
	case TypePadding:
		err = VerifyPadding(lr, h.Length)
	case TypeApplication:
		block.Body, err = ParseApplication(lr, h.Length)
	case TypeSeekTable:
		block.Body, err = ParseSeekTable(lr, h.Length)
	case TypeVorbisComment:
		block.Body, err = ParseVorbisComment(lr)
	case TypeCueSheet:
		block.Body, err = ParseCueSheet(lr)
	case TypePicture:
		block.Body, err = ParsePicture(lr)
	default:
		buf := make([]byte, h.Length)
		err = lr.ReadFully(buf)
		block.Raw = buf
	}
	if err != nil {
		return nil, err
	}
	if cr.n != int64(h.Length) {
		return nil, xerr.New(xerr.DataFormat, "meta: %s block body consumed %d of %d declared bytes", h.Type, cr.n, h.Length)
	}
	return block, nil
}

// countingReader tracks the number of bytes read through it, so Parse can
// confirm a block body parser consumed exactly its declared length instead
// of silently leaving the outer reader desynchronised.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// byteReader adapts a *bits.Reader (which must be byte-aligned) to an
// io.Reader, for use with io.LimitReader when bounding a block body.
type byteReader struct {
	br *bits.Reader
}

func (b byteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := b.br.ReadFully(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Encode writes the metadata block header and body.
func (block *Block) Encode(bw *bits.Writer) error {
	if err := block.Header.Encode(bw); err != nil {
		return err
	}
	switch body := block.Body.(type) {
	case *StreamInfo:
		return body.Encode(bw)
	case *SeekTable:
		return body.Encode(bw)
	case *Application:
		return body.Encode(bw)
	case *VorbisComment:
		return body.Encode(bw)
	case *CueSheet:
		return body.Encode(bw)
	case *Picture:
		return body.Encode(bw)
	case nil:
		if block.Header.Type == TypePadding {
			return writeZeros(bw, block.Header.Length)
		}
		return bw.WriteFully(block.Raw)
	default:
		return xerr.New(xerr.InvalidArgument, "meta: unsupported block body type %T", body)
	}
}

func writeZeros(bw *bits.Writer, n int) error {
	buf := make([]byte, n)
	return bw.WriteFully(buf)
}

func isAllZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

func nullTerminated(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
