package meta

import (
	"github.com/mewkiz/pkg/readerutil"

	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

// CueSheet stores information usable in a cue sheet: track and index
// points compatible with Red Book CD digital audio discs, plus metadata
// such as the media catalog number and track ISRCs.
type CueSheet struct {
	// MCN is the media catalog number, in ASCII printable characters
	// 0x20-0x7e, NUL-padded. For CD-DA this is a thirteen digit number.
	MCN string
	// LeadInSampleCount is the number of lead-in samples; meaningful only
	// for CD-DA cue sheets, 0 otherwise.
	LeadInSampleCount uint64
	// IsCompactDisc is true if the cue sheet corresponds to a CD.
	IsCompactDisc bool
	// Tracks holds one or more tracks, the last of which is always the
	// required lead-out track.
	Tracks []CueSheetTrack
}

// CueSheetTrack describes one track within a CueSheet.
type CueSheetTrack struct {
	// Offset is the track's offset in samples from the start of the
	// stream.
	Offset uint64
	// TrackNum is the track number; 0 is reserved (conflicts with CD-DA
	// lead-in), the lead-out track is 170 (CD-DA) or 255 (non-CD-DA).
	TrackNum uint8
	// ISRC is the track's 12-character ISRC code, or 12 NUL bytes if
	// absent.
	ISRC string
	// IsAudio is true for an audio track, false for non-audio.
	IsAudio bool
	// HasPreEmphasis reflects the CD-DA Q-channel control bit 5.
	HasPreEmphasis bool
	// TrackIndexes holds the track's index points; empty only for the
	// lead-out track.
	TrackIndexes []CueSheetTrackIndex
}

// CueSheetTrackIndex is an index point within a CueSheetTrack.
type CueSheetTrackIndex struct {
	// Offset is the index point's offset in samples, relative to the
	// track's own offset.
	Offset uint64
	// IndexPointNum identifies the index point; index numbers increase by
	// 1 starting from 0 or 1 and must be unique within a track.
	IndexPointNum uint8
}

// ParseCueSheet reads and parses a CueSheet metadata block body.
//
// Cue sheet format (pseudo code):
//
//	type METADATA_BLOCK_CUESHEET struct {
//	   mcn                  [128]byte
//	   lead_in_sample_count uint64
//	   is_compact_disc      bool
//	   _                    uint7
//	   _                    [258]byte
//	   track_count          uint8
//	   tracks               [track_count]track
//	}
//
// ref: http://flac.sourceforge.net/format.html#metadata_block_cuesheet
func ParseCueSheet(br *bits.Reader) (*CueSheet, error) {
	mcnBuf := make([]byte, 128)
	if err := br.ReadFully(mcnBuf); err != nil {
		return nil, err
	}
	cs := &CueSheet{MCN: nullTerminated(mcnBuf)}
	for _, r := range cs.MCN {
		if r < 0x20 || r > 0x7E {
			return nil, xerr.New(xerr.DataFormat, "meta: invalid character in media catalog number: %#U", r)
		}
	}

	leadIn, err := br.Read(64)
	if err != nil {
		return nil, err
	}
	cs.LeadInSampleCount = leadIn

	const (
		isCompactDiscMask    = 0x80
		cueSheetReservedMask = 0x7F
	)
	flagsByte, err := readerutil.ReadByte(byteReader{br})
	if err != nil {
		return nil, err
	}
	cs.IsCompactDisc = flagsByte&isCompactDiscMask != 0
	if flagsByte&cueSheetReservedMask != 0 {
		return nil, xerr.New(xerr.ReservedValue, "meta: cue sheet reserved bits must be 0")
	}
	reservedBuf := make([]byte, 258)
	if err := br.ReadFully(reservedBuf); err != nil {
		return nil, err
	}
	if !isAllZero(reservedBuf) {
		return nil, xerr.New(xerr.ReservedValue, "meta: cue sheet reserved bytes must be 0")
	}
	if !cs.IsCompactDisc && cs.LeadInSampleCount != 0 {
		return nil, xerr.New(xerr.DataFormat, "meta: lead-in sample count must be 0 for non-CD-DA cue sheets")
	}

	trackCount, err := br.ReadUint(8)
	if err != nil {
		return nil, err
	}
	if trackCount < 1 {
		return nil, xerr.New(xerr.DataFormat, "meta: cue sheet requires at least the lead-out track")
	}
	if trackCount > 100 && cs.IsCompactDisc {
		return nil, xerr.New(xerr.DataFormat, "meta: too many tracks for CD-DA cue sheet: %d", trackCount)
	}

	cs.Tracks = make([]CueSheetTrack, trackCount)
	for i := range cs.Tracks {
		track := &cs.Tracks[i]
		last := i == len(cs.Tracks)-1

		offset, err := br.Read(64)
		if err != nil {
			return nil, err
		}
		track.Offset = offset
		if cs.IsCompactDisc && track.Offset%588 != 0 {
			return nil, xerr.New(xerr.DataFormat, "meta: CD-DA track offset must be divisible by 588: %d", track.Offset)
		}

		num, err := br.ReadUint(8)
		if err != nil {
			return nil, err
		}
		track.TrackNum = uint8(num)
		if track.TrackNum == 0 {
			return nil, xerr.New(xerr.DataFormat, "meta: track number 0 is reserved")
		}
		if cs.IsCompactDisc {
			if last && track.TrackNum != 170 {
				return nil, xerr.New(xerr.DataFormat, "meta: CD-DA lead-out track number must be 170, got %d", track.TrackNum)
			}
			if !last && track.TrackNum > 99 {
				return nil, xerr.New(xerr.DataFormat, "meta: CD-DA track number out of range: %d", track.TrackNum)
			}
		} else if last && track.TrackNum != 255 {
			return nil, xerr.New(xerr.DataFormat, "meta: non-CD-DA lead-out track number must be 255, got %d", track.TrackNum)
		}

		isrcBuf := make([]byte, 12)
		if err := br.ReadFully(isrcBuf); err != nil {
			return nil, err
		}
		track.ISRC = nullTerminated(isrcBuf)

		const (
			trackTypeMask      = 0x80
			hasPreEmphasisMask = 0x40
			trackReservedMask  = 0x3F
		)
		trackFlagsByte, err := readerutil.ReadByte(byteReader{br})
		if err != nil {
			return nil, err
		}
		track.IsAudio = trackFlagsByte&trackTypeMask == 0
		track.HasPreEmphasis = trackFlagsByte&hasPreEmphasisMask != 0
		if trackFlagsByte&trackReservedMask != 0 {
			return nil, xerr.New(xerr.ReservedValue, "meta: cue sheet track reserved bits must be 0")
		}
		trackReserved := make([]byte, 13)
		if err := br.ReadFully(trackReserved); err != nil {
			return nil, err
		}
		if !isAllZero(trackReserved) {
			return nil, xerr.New(xerr.ReservedValue, "meta: cue sheet track reserved bytes must be 0")
		}

		idxCount, err := br.ReadUint(8)
		if err != nil {
			return nil, err
		}
		if last {
			if idxCount != 0 {
				return nil, xerr.New(xerr.DataFormat, "meta: lead-out track must have zero index points")
			}
		} else if idxCount < 1 {
			return nil, xerr.New(xerr.DataFormat, "meta: track must have at least one index point")
		} else if cs.IsCompactDisc && idxCount > 100 {
			return nil, xerr.New(xerr.DataFormat, "meta: too many index points for CD-DA track: %d", idxCount)
		}

		track.TrackIndexes = make([]CueSheetTrackIndex, idxCount)
		for j := range track.TrackIndexes {
			idx := &track.TrackIndexes[j]
			off, err := br.Read(64)
			if err != nil {
				return nil, err
			}
			idx.Offset = off
			num, err := br.ReadUint(8)
			if err != nil {
				return nil, err
			}
			idx.IndexPointNum = uint8(num)
			idxReserved := make([]byte, 3)
			if err := br.ReadFully(idxReserved); err != nil {
				return nil, err
			}
			if !isAllZero(idxReserved) {
				return nil, xerr.New(xerr.ReservedValue, "meta: cue sheet index reserved bytes must be 0")
			}
		}
	}

	return cs, nil
}

// Encode writes a CueSheet metadata block body.
func (cs *CueSheet) Encode(bw *bits.Writer) error {
	mcnBuf := make([]byte, 128)
	copy(mcnBuf, cs.MCN)
	if err := bw.WriteFully(mcnBuf); err != nil {
		return err
	}
	if err := bw.Write(64, cs.LeadInSampleCount); err != nil {
		return err
	}
	var isCD uint64
	if cs.IsCompactDisc {
		isCD = 1
	}
	if err := bw.WriteUint(1, isCD); err != nil {
		return err
	}
	if err := bw.WriteUint(7, 0); err != nil {
		return err
	}
	if err := bw.WriteFully(make([]byte, 258)); err != nil {
		return err
	}
	if err := bw.WriteUint(8, uint64(len(cs.Tracks))); err != nil {
		return err
	}
	for _, track := range cs.Tracks {
		if err := bw.Write(64, track.Offset); err != nil {
			return err
		}
		if err := bw.WriteUint(8, uint64(track.TrackNum)); err != nil {
			return err
		}
		isrcBuf := make([]byte, 12)
		copy(isrcBuf, track.ISRC)
		if err := bw.WriteFully(isrcBuf); err != nil {
			return err
		}
		var notAudio uint64
		if !track.IsAudio {
			notAudio = 1
		}
		if err := bw.WriteUint(1, notAudio); err != nil {
			return err
		}
		var preEmph uint64
		if track.HasPreEmphasis {
			preEmph = 1
		}
		if err := bw.WriteUint(1, preEmph); err != nil {
			return err
		}
		if err := bw.WriteUint(6, 0); err != nil {
			return err
		}
		if err := bw.WriteFully(make([]byte, 13)); err != nil {
			return err
		}
		if err := bw.WriteUint(8, uint64(len(track.TrackIndexes))); err != nil {
			return err
		}
		for _, idx := range track.TrackIndexes {
			if err := bw.Write(64, idx.Offset); err != nil {
				return err
			}
			if err := bw.WriteUint(8, uint64(idx.IndexPointNum)); err != nil {
				return err
			}
			if err := bw.WriteFully(make([]byte, 3)); err != nil {
				return err
			}
		}
	}
	return nil
}
