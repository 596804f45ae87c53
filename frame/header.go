// Package frame implements access to FLAC audio frames: headers, subframes,
// stereo decorrelation and the CRC-8/CRC-16 integrity checks that bracket
// every frame on the wire.
package frame

import (
	"fmt"

	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// Channels identifies the channel layout and, for two-channel frames, the
// inter-channel decorrelation in effect.
type Channels uint8

// Channel assignments, cf. the FLAC frame header.
const (
	ChannelsMono Channels = iota
	ChannelsLR
	ChannelsLRC
	ChannelsLRLsRs
	ChannelsLRCLsRs
	ChannelsLRCLfeLsRs
	ChannelsLRCLfeCsSlSr
	ChannelsLRCLfeLsRsSlSr
	// ChannelsLeftSide: channel 0 is left, channel 1 is side (L-R).
	ChannelsLeftSide
	// ChannelsSideRight: channel 0 is side (L-R), channel 1 is right.
	ChannelsSideRight
	// ChannelsMidSide: channel 0 is mid ((L+R)>>1), channel 1 is side (L-R).
	ChannelsMidSide
)

// Count returns the number of subframes (encoded channels) carried by a
// frame using this channel assignment.
func (ch Channels) Count() int {
	switch {
	case ch <= ChannelsLRCLfeLsRsSlSr:
		return int(ch) + 1
	case ch == ChannelsLeftSide, ch == ChannelsSideRight, ch == ChannelsMidSide:
		return 2
	default:
		return 0
	}
}

func (ch Channels) String() string {
	switch ch {
	case ChannelsLeftSide:
		return "left/side"
	case ChannelsSideRight:
		return "side/right"
	case ChannelsMidSide:
		return "mid/side"
	default:
		return fmt.Sprintf("%d channel(s)", ch.Count())
	}
}

// Header contains the basic properties of an audio frame: its block size,
// sample rate, channel layout and sample depth. Each header starts with a
// sync code so a reader can resynchronise mid-stream.
type Header struct {
	// HasFixedBlockSize reports whether the stream uses a fixed block size;
	// when true, Num is a frame number, otherwise it is the first sample
	// number of the frame.
	HasFixedBlockSize bool
	// BlockSize in inter-channel samples.
	BlockSize uint16
	// SampleRate in Hz; 0 means "inherit from StreamInfo".
	SampleRate uint32
	// Channels identifies channel count/order/decorrelation.
	Channels Channels
	// BitsPerSample; 0 means "inherit from StreamInfo".
	BitsPerSample uint8
	// Num is the frame number (fixed block size) or starting sample number
	// (variable block size).
	Num uint64
}

// sampleRateTable maps codes 1..11 to their fixed sample rate in Hz.
var sampleRateTable = [12]uint32{
	0:  0, // inherit from StreamInfo
	1:  88200,
	2:  176400,
	3:  192000,
	4:  8000,
	5:  16000,
	6:  22050,
	7:  24000,
	8:  32000,
	9:  44100,
	10: 48000,
	11: 96000,
}

var sampleDepthTable = [8]uint8{
	0: 0, // inherit from StreamInfo
	1: 8,
	2: 12,
	4: 16,
	5: 20,
	6: 24,
}

// ParseHeader reads and parses a frame header, verifying its CRC-8 footer.
// The caller must have reset the reader's running CRCs immediately before
// calling ParseHeader.
func ParseHeader(br *bits.Reader) (*Header, error) {
	sync, err := br.ReadUint(14)
	if err != nil {
		return nil, err
	}
	if sync != 0x3FFE {
		return nil, xerr.New(xerr.BadSync, "frame: invalid sync code 0x%04X", sync)
	}

	reserved, err := br.ReadUint(1)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, xerr.New(xerr.ReservedValue, "frame: reserved header bit must be 0")
	}

	variable, err := br.ReadBool()
	if err != nil {
		return nil, err
	}
	hdr := &Header{HasFixedBlockSize: !variable}

	blockSizeCode, err := br.ReadUint(4)
	if err != nil {
		return nil, err
	}
	sampleRateCode, err := br.ReadUint(4)
	if err != nil {
		return nil, err
	}
	chanCode, err := br.ReadUint(4)
	if err != nil {
		return nil, err
	}
	depthCode, err := br.ReadUint(3)
	if err != nil {
		return nil, err
	}

	reserved, err = br.ReadUint(1)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, xerr.New(xerr.ReservedValue, "frame: reserved header bit must be 0")
	}

	num, err := readUTF8(br)
	if err != nil {
		return nil, err
	}
	hdr.Num = num

	switch {
	case blockSizeCode == 0:
		return nil, xerr.New(xerr.ReservedValue, "frame: reserved block size code")
	case blockSizeCode == 1:
		hdr.BlockSize = 192
	case blockSizeCode >= 2 && blockSizeCode <= 5:
		hdr.BlockSize = 576 * (1 << (blockSizeCode - 2))
	case blockSizeCode == 6:
		v, err := br.ReadUint(8)
		if err != nil {
			return nil, err
		}
		hdr.BlockSize = uint16(v) + 1
	case blockSizeCode == 7:
		v, err := br.ReadUint(16)
		if err != nil {
			return nil, err
		}
		hdr.BlockSize = uint16(v) + 1
	default: // 8..15
		hdr.BlockSize = 256 * (1 << (blockSizeCode - 8))
	}

	switch {
	case sampleRateCode <= 11:
		hdr.SampleRate = sampleRateTable[sampleRateCode]
	case sampleRateCode == 12:
		v, err := br.ReadUint(8)
		if err != nil {
			return nil, err
		}
		hdr.SampleRate = uint32(v) * 1000
	case sampleRateCode == 13:
		v, err := br.ReadUint(16)
		if err != nil {
			return nil, err
		}
		hdr.SampleRate = uint32(v)
	case sampleRateCode == 14:
		v, err := br.ReadUint(16)
		if err != nil {
			return nil, err
		}
		hdr.SampleRate = uint32(v) * 10
	default:
		return nil, xerr.New(xerr.ReservedValue, "frame: reserved sample rate code 15")
	}

	if chanCode > 10 {
		return nil, xerr.New(xerr.ReservedValue, "frame: reserved channel assignment %d", chanCode)
	}
	hdr.Channels = Channels(chanCode)

	switch depthCode {
	case 0, 1, 2, 4, 5, 6:
		hdr.BitsPerSample = sampleDepthTable[depthCode]
	default:
		return nil, xerr.New(xerr.ReservedValue, "frame: reserved sample depth code %d", depthCode)
	}

	gotCRC, err := br.CRC8()
	if err != nil {
		return nil, err
	}
	wantCRC, err := br.ReadUint(8)
	if err != nil {
		return nil, err
	}
	if uint8(wantCRC) != gotCRC {
		return nil, xerr.New(xerr.CrcMismatch, "frame: header CRC-8 mismatch: stored 0x%02X, computed 0x%02X", wantCRC, gotCRC)
	}
	return hdr, nil
}

// Encode writes a frame header, including its trailing CRC-8. The caller
// must have reset the writer's running CRCs immediately before calling
// Encode.
func (hdr *Header) Encode(bw *bits.Writer) error {
	if err := bw.Write(14, 0x3FFE); err != nil {
		return err
	}
	if err := bw.Write(1, 0); err != nil {
		return err
	}
	if err := bw.WriteBool(!hdr.HasFixedBlockSize); err != nil {
		return err
	}

	var blockSizeCode uint64
	var blockSizeSuffixBits uint8
	var blockSizeSuffix uint64
	switch {
	case hdr.BlockSize == 192:
		blockSizeCode = 1
	case hdr.BlockSize%576 == 0 && hdr.BlockSize/576 >= 1 && hdr.BlockSize/576 <= 8 && isPow2(hdr.BlockSize/576):
		blockSizeCode = 2 + log2u16(hdr.BlockSize/576)
	case hdr.BlockSize%256 == 0 && hdr.BlockSize/256 >= 1 && hdr.BlockSize/256 <= 128 && isPow2(hdr.BlockSize/256):
		blockSizeCode = 8 + log2u16(hdr.BlockSize/256)
	case hdr.BlockSize <= 256:
		blockSizeCode = 6
		blockSizeSuffixBits = 8
		blockSizeSuffix = uint64(hdr.BlockSize - 1)
	default:
		blockSizeCode = 7
		blockSizeSuffixBits = 16
		blockSizeSuffix = uint64(hdr.BlockSize - 1)
	}
	if err := bw.Write(4, blockSizeCode); err != nil {
		return err
	}

	var sampleRateCode uint64
	var sampleRateSuffixBits uint8
	var sampleRateSuffix uint64
	switch hdr.SampleRate {
	case 0, 88200, 176400, 192000, 8000, 16000, 22050, 24000, 32000, 44100, 48000, 96000:
		for code, rate := range sampleRateTable {
			if rate == hdr.SampleRate {
				sampleRateCode = uint64(code)
				break
			}
		}
	default:
		switch {
		case hdr.SampleRate%1000 == 0 && hdr.SampleRate/1000 <= 255:
			sampleRateCode = 12
			sampleRateSuffixBits = 8
			sampleRateSuffix = uint64(hdr.SampleRate / 1000)
		case hdr.SampleRate <= 65535:
			sampleRateCode = 13
			sampleRateSuffixBits = 16
			sampleRateSuffix = uint64(hdr.SampleRate)
		case hdr.SampleRate%10 == 0 && hdr.SampleRate/10 <= 65535:
			sampleRateCode = 14
			sampleRateSuffixBits = 16
			sampleRateSuffix = uint64(hdr.SampleRate / 10)
		default:
			return xerr.New(xerr.InvalidArgument, "frame: unable to encode sample rate %d", hdr.SampleRate)
		}
	}
	if err := bw.Write(4, sampleRateCode); err != nil {
		return err
	}

	if err := bw.Write(4, uint64(hdr.Channels)); err != nil {
		return err
	}

	var depthCode uint64
	switch hdr.BitsPerSample {
	case 0:
		depthCode = 0
	case 8:
		depthCode = 1
	case 12:
		depthCode = 2
	case 16:
		depthCode = 4
	case 20:
		depthCode = 5
	case 24:
		depthCode = 6
	default:
		return xerr.New(xerr.InvalidArgument, "frame: unable to encode sample depth %d", hdr.BitsPerSample)
	}
	if err := bw.Write(3, depthCode); err != nil {
		return err
	}

	if err := bw.Write(1, 0); err != nil {
		return err
	}

	if err := writeUTF8(bw, hdr.Num); err != nil {
		return err
	}

	if blockSizeSuffixBits > 0 {
		if err := bw.Write(blockSizeSuffixBits, blockSizeSuffix); err != nil {
			return err
		}
	}
	if sampleRateSuffixBits > 0 {
		if err := bw.Write(sampleRateSuffixBits, sampleRateSuffix); err != nil {
			return err
		}
	}

	crc, err := bw.CRC8()
	if err != nil {
		return err
	}
	return bw.Write(8, uint64(crc))
}

func isPow2(v uint16) bool { return v != 0 && v&(v-1) == 0 }

func log2u16(v uint16) uint64 {
	var n uint64
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
