package frame

import (
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// UTF-8-style variable-length integer coding used by the frame header to
// pack a frame number (uint31) or starting sample number (uint36) into
// 1-7 bytes, re-using the leading-byte length prefix of UTF-8 text encoding
// without the codepoint semantics.
const (
	rune1Max = 1<<7 - 1
	rune2Max = 1<<11 - 1
	rune3Max = 1<<16 - 1
	rune4Max = 1<<21 - 1
	rune5Max = 1<<26 - 1
	rune6Max = 1<<31 - 1
	rune7Max = 1<<36 - 1
)

// writeUTF8 encodes x (up to 36 bits) using the FLAC "UTF-8" coding.
func writeUTF8(bw *bits.Writer, x uint64) error {
	if x <= rune1Max {
		return bw.Write(8, x)
	}

	var l int
	var lead uint64
	switch {
	case x <= rune2Max:
		l, lead = 1, 0xC0|(x>>6)&0x1F
	case x <= rune3Max:
		l, lead = 2, 0xE0|(x>>12)&0x0F
	case x <= rune4Max:
		l, lead = 3, 0xF0|(x>>18)&0x07
	case x <= rune5Max:
		l, lead = 4, 0xF8|(x>>24)&0x03
	case x <= rune6Max:
		l, lead = 5, 0xFC|(x>>30)&0x01
	case x <= rune7Max:
		l, lead = 6, 0xFE
	default:
		return xerr.New(xerr.InvalidArgument, "frame: value %d too large for UTF-8 coding", x)
	}
	if err := bw.Write(8, lead); err != nil {
		return err
	}
	for i := l - 1; i >= 0; i-- {
		cont := 0x80 | (x>>uint(6*i))&0x3F
		if err := bw.Write(8, cont); err != nil {
			return err
		}
	}
	return nil
}

// readUTF8 decodes a FLAC "UTF-8" coded integer.
func readUTF8(br *bits.Reader) (uint64, error) {
	lead, err := br.ReadUint(8)
	if err != nil {
		return 0, err
	}
	if lead&0x80 == 0 {
		return lead, nil
	}

	var l int
	var x uint64
	switch {
	case lead&0xE0 == 0xC0:
		l, x = 1, lead&0x1F
	case lead&0xF0 == 0xE0:
		l, x = 2, lead&0x0F
	case lead&0xF8 == 0xF0:
		l, x = 3, lead&0x07
	case lead&0xFC == 0xF8:
		l, x = 4, lead&0x03
	case lead&0xFE == 0xFC:
		l, x = 5, lead&0x01
	case lead == 0xFE:
		l, x = 6, 0
	default:
		return 0, xerr.New(xerr.DataFormat, "frame: invalid UTF-8 coding leading byte 0x%02X", lead)
	}
	for i := 0; i < l; i++ {
		cont, err := br.ReadUint(8)
		if err != nil {
			return 0, err
		}
		if cont&0xC0 != 0x80 {
			return 0, xerr.New(xerr.DataFormat, "frame: invalid UTF-8 coding continuation byte 0x%02X", cont)
		}
		x = x<<6 | (cont & 0x3F)
	}
	return x, nil
}
