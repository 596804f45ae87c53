package meta

import (
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// Picture stores a picture associated with the stream, most commonly cover
// art. There may be more than one Picture block in a stream.
type Picture struct {
	// Type is the picture type per the ID3v2 APIC frame (0-20); there may
	// be at most one each of type 1 and 2 in a stream.
	Type uint32
	// MIME is the picture's MIME type, in printable ASCII 0x20-0x7e; "-->"
	// signals that Data is a URL rather than the picture itself.
	MIME string
	// Desc is a UTF-8 description of the picture.
	Desc string
	Width, Height, ColorDepth uint32
	// ColorCount is the number of colors used for indexed-color pictures,
	// or 0 for non-indexed pictures.
	ColorCount uint32
	Data       []byte
}

// ParsePicture reads and parses a Picture metadata block body.
//
// Picture format (pseudo code):
//
//	type METADATA_BLOCK_PICTURE struct {
//	   type        uint32
//	   mime_length uint32
//	   mime_string [mime_length]byte
//	   desc_length uint32
//	   desc_string [desc_length]byte
//	   width       uint32
//	   height      uint32
//	   color_depth uint32
//	   color_count uint32
//	   data_length uint32
//	   data        [data_length]byte
//	}
//
// ref: http://flac.sourceforge.net/format.html#metadata_block_picture
func ParsePicture(br *bits.Reader) (*Picture, error) {
	pic := new(Picture)

	typ, err := br.Read(32)
	if err != nil {
		return nil, err
	}
	pic.Type = uint32(typ)
	if pic.Type > 20 {
		return nil, xerr.New(xerr.DataFormat, "meta: reserved picture type %d", pic.Type)
	}

	mimeLen, err := br.Read(32)
	if err != nil {
		return nil, err
	}
	mimeBuf := make([]byte, mimeLen)
	if err := br.ReadFully(mimeBuf); err != nil {
		return nil, err
	}
	pic.MIME = string(mimeBuf)
	for _, r := range pic.MIME {
		if r < 0x20 || r > 0x7E {
			return nil, xerr.New(xerr.DataFormat, "meta: invalid character in picture MIME type: %#U", r)
		}
	}

	descLen, err := br.Read(32)
	if err != nil {
		return nil, err
	}
	descBuf := make([]byte, descLen)
	if err := br.ReadFully(descBuf); err != nil {
		return nil, err
	}
	pic.Desc = string(descBuf)

	for _, f := range []*uint32{&pic.Width, &pic.Height, &pic.ColorDepth, &pic.ColorCount} {
		v, err := br.Read(32)
		if err != nil {
			return nil, err
		}
		*f = uint32(v)
	}

	dataLen, err := br.Read(32)
	if err != nil {
		return nil, err
	}
	pic.Data = make([]byte, dataLen)
	if err := br.ReadFully(pic.Data); err != nil {
		return nil, err
	}

	return pic, nil
}

// Encode writes a Picture metadata block body.
func (pic *Picture) Encode(bw *bits.Writer) error {
	if err := bw.Write(32, uint64(pic.Type)); err != nil {
		return err
	}
	if err := bw.Write(32, uint64(len(pic.MIME))); err != nil {
		return err
	}
	if err := bw.WriteFully([]byte(pic.MIME)); err != nil {
		return err
	}
	if err := bw.Write(32, uint64(len(pic.Desc))); err != nil {
		return err
	}
	if err := bw.WriteFully([]byte(pic.Desc)); err != nil {
		return err
	}
	for _, v := range []uint32{pic.Width, pic.Height, pic.ColorDepth, pic.ColorCount} {
		if err := bw.Write(32, uint64(v)); err != nil {
			return err
		}
	}
	if err := bw.Write(32, uint64(len(pic.Data))); err != nil {
		return err
	}
	return bw.WriteFully(pic.Data)
}
