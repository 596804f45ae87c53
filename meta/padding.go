package meta

import (
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// VerifyPadding reads and verifies the body of a Padding metadata block; it
// must consist entirely of zero bytes.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_padding
func VerifyPadding(br *bits.Reader, length int) error {
	buf := make([]byte, length)
	if err := br.ReadFully(buf); err != nil {
		return err
	}
	if !isAllZero(buf) {
		return xerr.New(xerr.DataFormat, "meta: padding block contains non-zero bytes")
	}
	return nil
}
