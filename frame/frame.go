package frame

import (
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// Frame holds the header and decoded (inter-channel-recorrelated) samples of
// an audio frame. Samples[c] holds the c'th output channel's samples, in
// stream channel order (not subframe/decorrelation order).
type Frame struct {
	Header
	// Samples holds one slice per output channel.
	Samples [][]int64
}

// Parse reads and decodes one frame, including its header, subframes,
// stereo recorrelation, and CRC-16 footer check.
func Parse(br *bits.Reader, streamInfoSampleRate uint32, streamInfoBitsPerSample uint8) (*Frame, error) {
	if err := br.ResetCRCs(); err != nil {
		return nil, err
	}
	hdr, err := ParseHeader(br)
	if err != nil {
		return nil, err
	}
	bps := hdr.BitsPerSample
	if bps == 0 {
		bps = streamInfoBitsPerSample
	}
	hdr.BitsPerSample = bps
	if hdr.SampleRate == 0 {
		hdr.SampleRate = streamInfoSampleRate
	}

	nsub := hdr.Channels.Count()
	if nsub == 0 {
		return nil, xerr.New(xerr.ReservedValue, "frame: reserved channel assignment")
	}

	subBps := make([]uint, nsub)
	for i := range subBps {
		subBps[i] = uint(bps)
	}
	switch hdr.Channels {
	case ChannelsLeftSide, ChannelsMidSide:
		subBps[1]++
	case ChannelsSideRight:
		subBps[0]++
	}

	subframes := make([]*Subframe, nsub)
	for i := range subframes {
		sf, err := ParseSubframe(br, int(hdr.BlockSize), subBps[i])
		if err != nil {
			return nil, err
		}
		subframes[i] = sf
	}

	samples := recorrelate(hdr.Channels, subframes)

	br.Align()
	gotCRC, err := br.CRC16()
	if err != nil {
		return nil, err
	}
	wantCRC, err := br.ReadUint(16)
	if err != nil {
		return nil, err
	}
	if uint16(wantCRC) != gotCRC {
		return nil, xerr.New(xerr.CrcMismatch, "frame: footer CRC-16 mismatch: stored 0x%04X, computed 0x%04X", wantCRC, gotCRC)
	}

	return &Frame{Header: *hdr, Samples: samples}, nil
}

// recorrelate inverts the stereo decorrelation (if any) applied by the
// encoder, returning samples in stream channel order.
func recorrelate(ch Channels, subframes []*Subframe) [][]int64 {
	switch ch {
	case ChannelsLeftSide:
		l, s := subframes[0].Samples, subframes[1].Samples
		r := make([]int64, len(l))
		for i := range r {
			r[i] = l[i] - s[i]
		}
		return [][]int64{l, r}
	case ChannelsSideRight:
		s, r := subframes[0].Samples, subframes[1].Samples
		l := make([]int64, len(r))
		for i := range l {
			l[i] = s[i] + r[i]
		}
		return [][]int64{l, r}
	case ChannelsMidSide:
		m, s := subframes[0].Samples, subframes[1].Samples
		l := make([]int64, len(m))
		r := make([]int64, len(m))
		for i := range l {
			mm := (m[i] << 1) | (s[i] & 1)
			l[i] = (mm + s[i]) >> 1
			r[i] = (mm - s[i]) >> 1
		}
		return [][]int64{l, r}
	default:
		out := make([][]int64, len(subframes))
		for i, sf := range subframes {
			out[i] = sf.Samples
		}
		return out
	}
}

// decorrelate applies the given channel assignment's stereo decorrelation
// to a two-channel block, returning the per-subframe sample sequences in
// subframe order (not stream channel order).
func decorrelate(ch Channels, channels [][]int64) [][]int64 {
	if len(channels) != 2 {
		return channels
	}
	l, r := channels[0], channels[1]
	switch ch {
	case ChannelsLeftSide:
		s := make([]int64, len(l))
		for i := range s {
			s[i] = l[i] - r[i]
		}
		return [][]int64{l, s}
	case ChannelsSideRight:
		s := make([]int64, len(l))
		for i := range s {
			s[i] = l[i] - r[i]
		}
		return [][]int64{s, r}
	case ChannelsMidSide:
		m := make([]int64, len(l))
		s := make([]int64, len(l))
		for i := range m {
			s[i] = l[i] - r[i]
			m[i] = (l[i] + r[i]) >> 1
		}
		return [][]int64{m, s}
	default:
		return channels
	}
}

// Encode writes one frame: header, subframes (already decorrelated and
// planned by the caller via BuildSubframes), and CRC-16 footer.
func Encode(bw *bits.Writer, hdr *Header, subframes []*Subframe, subBps []uint) error {
	if err := bw.ResetCRCs(); err != nil {
		return err
	}
	if err := hdr.Encode(bw); err != nil {
		return err
	}
	for i, sf := range subframes {
		if err := sf.Encode(bw, subBps[i]); err != nil {
			return err
		}
	}
	if err := bw.Align(); err != nil {
		return err
	}
	crc, err := bw.CRC16()
	if err != nil {
		return err
	}
	return bw.Write(16, uint64(crc))
}

// BuildSubframes decorrelates a block's channel samples per the given
// channel assignment and returns one unplanned Subframe per resulting
// subframe, along with the effective bits-per-sample each subframe carries
// (before any wasted-bits adjustment). Each subframe's Wasted is already
// set from its samples; the caller is responsible for choosing
// SubHeader.Pred/Order/Coeffs/Shift for each and calling PlanSubframe
// before Encode.
func BuildSubframes(ch Channels, bps uint8, channels [][]int64) (subframes []*Subframe, subBps []uint) {
	decorrelated := decorrelate(ch, channels)
	subBps = make([]uint, len(decorrelated))
	for i := range subBps {
		subBps[i] = uint(bps)
	}
	switch ch {
	case ChannelsLeftSide, ChannelsMidSide:
		subBps[1]++
	case ChannelsSideRight:
		subBps[0]++
	}

	subframes = make([]*Subframe, len(decorrelated))
	for i, samples := range decorrelated {
		subframes[i] = &Subframe{
			SubHeader: SubHeader{Wasted: WastedBits(samples)},
			Samples:   samples,
			NSamples:  len(samples),
		}
	}
	return subframes, subBps
}
