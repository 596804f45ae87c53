package meta

import (
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// seekPointPlaceholder marks a placeholder seek point.
const seekPointPlaceholder = 0xFFFFFFFFFFFFFFFF

// SeekTable contains one or more pre-calculated audio frame seek points.
// There may be at most one SeekTable block in a stream.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_seektable
type SeekTable struct {
	Points []SeekPoint
}

// SeekPoint specifies the sample number, byte offset and frame sample count
// of a given target frame. SeekPoint{SampleNum: seekPointPlaceholder} marks
// a placeholder point.
//
// ref: https://www.xiph.org/flac/format.html#seekpoint
type SeekPoint struct {
	// SampleNum is the sample number of the first sample in the target
	// frame, or seekPointPlaceholder for a placeholder point.
	SampleNum uint64
	// Offset is the byte offset from the first byte of the first frame
	// header to the first byte of the target frame's header.
	Offset uint64
	// NSamples is the number of samples in the target frame.
	NSamples uint16
}

const seekPointLen = 18 // 8 + 8 + 2 bytes

// ParseSeekTable reads and parses a SeekTable metadata block body of the
// given byte length.
func ParseSeekTable(br *bits.Reader, length int) (*SeekTable, error) {
	if length%seekPointLen != 0 {
		return nil, xerr.New(xerr.DataFormat, "meta: seek table length %d not a multiple of %d", length, seekPointLen)
	}
	n := length / seekPointLen
	if n < 1 {
		return nil, xerr.New(xerr.DataFormat, "meta: seek table requires at least one seek point")
	}
	st := &SeekTable{Points: make([]SeekPoint, n)}
	var prevSample, prevOffset uint64
	sawReal := false
	for i := range st.Points {
		p := &st.Points[i]
		sampleNum, err := br.Read(64)
		if err != nil {
			return nil, err
		}
		p.SampleNum = sampleNum
		offset, err := br.Read(64)
		if err != nil {
			return nil, err
		}
		p.Offset = offset
		nsamples, err := br.ReadUint(16)
		if err != nil {
			return nil, err
		}
		p.NSamples = uint16(nsamples)

		if p.SampleNum == seekPointPlaceholder {
			continue
		}
		if sawReal && (p.SampleNum <= prevSample || p.Offset <= prevOffset) {
			return nil, xerr.New(xerr.DataFormat, "meta: seek table entries must be strictly increasing")
		}
		prevSample, prevOffset = p.SampleNum, p.Offset
		sawReal = true
	}
	return st, nil
}

// Encode writes a SeekTable metadata block body.
func (st *SeekTable) Encode(bw *bits.Writer) error {
	for _, p := range st.Points {
		if err := bw.Write(64, p.SampleNum); err != nil {
			return err
		}
		if err := bw.Write(64, p.Offset); err != nil {
			return err
		}
		if err := bw.WriteUint(16, uint64(p.NSamples)); err != nil {
			return err
		}
	}
	return nil
}
