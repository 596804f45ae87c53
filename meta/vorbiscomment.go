package meta

import (
	"fmt"
	"strings"

	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// VorbisComment stores a list of human-readable name/value pairs, encoded
// with UTF-8. It implements the Vorbis comment specification (without the
// framing bit) and is the only tagging mechanism FLAC officially supports.
// There may be at most one VorbisComment block in a stream.
type VorbisComment struct {
	Vendor  string
	Entries []VorbisEntry
}

// VorbisEntry is a name/value pair, e.g. "ARTIST=Aphex Twin".
type VorbisEntry struct {
	Name  string
	Value string
}

// ParseVorbisComment reads and parses a VorbisComment metadata block body.
// Vendor and comment strings are length-prefixed with a little-endian
// uint32, per the Vorbis comment header spec.
func ParseVorbisComment(br *bits.Reader) (*VorbisComment, error) {
	vendorLen, err := readLE32(br)
	if err != nil {
		return nil, err
	}
	vendor := make([]byte, vendorLen)
	if err := br.ReadFully(vendor); err != nil {
		return nil, err
	}
	vc := &VorbisComment{Vendor: string(vendor)}

	count, err := readLE32(br)
	if err != nil {
		return nil, err
	}
	vc.Entries = make([]VorbisEntry, count)
	for i := range vc.Entries {
		vecLen, err := readLE32(br)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, vecLen)
		if err := br.ReadFully(buf); err != nil {
			return nil, err
		}
		vector := string(buf)
		pos := strings.Index(vector, "=")
		if pos == -1 {
			return nil, xerr.New(xerr.DataFormat, "meta: comment vector missing '=': %q", vector)
		}
		vc.Entries[i] = VorbisEntry{Name: vector[:pos], Value: vector[pos+1:]}
	}
	return vc, nil
}

// Encode writes a VorbisComment metadata block body.
func (vc *VorbisComment) Encode(bw *bits.Writer) error {
	if err := writeLE32(bw, uint32(len(vc.Vendor))); err != nil {
		return err
	}
	if err := bw.WriteFully([]byte(vc.Vendor)); err != nil {
		return err
	}
	if err := writeLE32(bw, uint32(len(vc.Entries))); err != nil {
		return err
	}
	for _, e := range vc.Entries {
		vector := fmt.Sprintf("%s=%s", e.Name, e.Value)
		if err := writeLE32(bw, uint32(len(vector))); err != nil {
			return err
		}
		if err := bw.WriteFully([]byte(vector)); err != nil {
			return err
		}
	}
	return nil
}

func readLE32(br *bits.Reader) (uint32, error) {
	var buf [4]byte
	if err := br.ReadFully(buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}

func writeLE32(bw *bits.Writer, v uint32) error {
	buf := [4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return bw.WriteFully(buf[:])
}
