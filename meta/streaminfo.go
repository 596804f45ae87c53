package meta

import (
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// StreamInfo contains stream-wide information about the FLAC audio stream.
// It must be present as the first metadata block of a FLAC stream, and its
// min/max frame size and MD5 fields are rewritten in place once an encoder
// has finished writing all frames.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_streaminfo
type StreamInfo struct {
	// BlockSizeMin and BlockSizeMax bound the block size (in samples) used
	// throughout the stream, in [1,65535]. Equal values mean a fixed block
	// size, in which case only the final frame may be shorter.
	BlockSizeMin uint16
	BlockSizeMax uint16
	// FrameSizeMin and FrameSizeMax bound the frame size in bytes; 0 means
	// unknown.
	FrameSizeMin uint32
	FrameSizeMax uint32
	// SampleRate is the sample rate in Hz, nonzero and <= 655350.
	SampleRate uint32
	// NChannels is the number of audio channels, in [1,8].
	NChannels uint8
	// BitsPerSample is the sample depth, in [4,32].
	BitsPerSample uint8
	// NSamples is the total number of interchannel samples (i.e. the
	// number of samples in one channel); 0 means unknown.
	NSamples uint64
	// MD5sum is the MD5 checksum of the unencoded audio data; an all-zero
	// value signals that the hash was not computed.
	MD5sum [16]byte
}

const streamInfoBodyLen = 34

// ParseStreamInfo reads and parses a StreamInfo metadata block body.
func ParseStreamInfo(br *bits.Reader) (*StreamInfo, error) {
	si := new(StreamInfo)

	v, err := br.ReadUint(16)
	if err != nil {
		return nil, err
	}
	si.BlockSizeMin = uint16(v)

	v, err = br.ReadUint(16)
	if err != nil {
		return nil, err
	}
	si.BlockSizeMax = uint16(v)

	v, err = br.ReadUint(24)
	if err != nil {
		return nil, err
	}
	si.FrameSizeMin = uint32(v)

	v, err = br.ReadUint(24)
	if err != nil {
		return nil, err
	}
	si.FrameSizeMax = uint32(v)

	v, err = br.ReadUint(20)
	if err != nil {
		return nil, err
	}
	si.SampleRate = uint32(v)
	if si.SampleRate == 0 || si.SampleRate > 655350 {
		return nil, xerr.New(xerr.DataFormat, "meta: invalid sample rate %d", si.SampleRate)
	}

	v, err = br.ReadUint(3)
	if err != nil {
		return nil, err
	}
	si.NChannels = uint8(v) + 1

	v, err = br.ReadUint(5)
	if err != nil {
		return nil, err
	}
	si.BitsPerSample = uint8(v) + 1
	if si.BitsPerSample < 4 {
		return nil, xerr.New(xerr.DataFormat, "meta: invalid sample depth %d", si.BitsPerSample)
	}

	v, err = br.Read(36)
	if err != nil {
		return nil, err
	}
	si.NSamples = v

	if err := br.ReadFully(si.MD5sum[:]); err != nil {
		return nil, err
	}

	return si, nil
}

// Encode writes a StreamInfo metadata block body.
func (si *StreamInfo) Encode(bw *bits.Writer) error {
	if err := bw.WriteUint(16, uint64(si.BlockSizeMin)); err != nil {
		return err
	}
	if err := bw.WriteUint(16, uint64(si.BlockSizeMax)); err != nil {
		return err
	}
	if err := bw.WriteUint(24, uint64(si.FrameSizeMin)); err != nil {
		return err
	}
	if err := bw.WriteUint(24, uint64(si.FrameSizeMax)); err != nil {
		return err
	}
	if err := bw.WriteUint(20, uint64(si.SampleRate)); err != nil {
		return err
	}
	if si.NChannels < 1 || si.NChannels > 8 {
		return xerr.New(xerr.InvalidArgument, "meta: channel count out of range [1,8]: %d", si.NChannels)
	}
	if err := bw.WriteUint(3, uint64(si.NChannels-1)); err != nil {
		return err
	}
	if si.BitsPerSample < 4 || si.BitsPerSample > 32 {
		return xerr.New(xerr.InvalidArgument, "meta: sample depth out of range [4,32]: %d", si.BitsPerSample)
	}
	if err := bw.WriteUint(5, uint64(si.BitsPerSample-1)); err != nil {
		return err
	}
	if err := bw.Write(36, si.NSamples); err != nil {
		return err
	}
	return bw.WriteFully(si.MD5sum[:])
}
