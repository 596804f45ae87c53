package flac

import "github.com/go-flac/flac/lpc"

// SubsetMode bounds the encoder's prediction search to keep the stream
// decodable by every FLAC-subset-compliant decoder, or widens it for
// maximum compression at the cost of that guarantee.
type SubsetMode int

const (
	// SubsetOnlyFixed restricts every subframe to a fixed predictor (order
	// 0-4), constant or verbatim; no LPC search is performed.
	SubsetOnlyFixed SubsetMode = iota
	// SubsetBest allows LPC up to order 12 and a Rice partition order up
	// to 8: the widest search still guaranteed subset-compliant at any
	// sample rate.
	SubsetBest
	// LaxMedium allows LPC up to order 32 and a Rice partition order up to
	// 15, outside the subset but still decodable by any full decoder.
	LaxMedium
	// LaxBest is LaxMedium plus the coefficient-rounding-variant search.
	LaxBest
)

// Config controls the Encoder's block framing and prediction search.
type Config struct {
	// MinBlockSize and MaxBlockSize bound the block size, in samples, used
	// throughout the stream; like StreamInfo's own fields, MinBlockSize
	// does not bind the final block. 0 disables the corresponding bound.
	// WriteBlock enforces MaxBlockSize on every call; MinBlockSize is not
	// enforced per-call, since WriteBlock cannot know which call is last.
	MinBlockSize uint16
	MaxBlockSize uint16
	// SubsetMode selects the LPC order and Rice partition order ceiling.
	SubsetMode SubsetMode
	// MaxRiceOrder further bounds the Rice partition order search below
	// whatever SubsetMode already allows; 0 means "leave SubsetMode's
	// ceiling unchanged".
	MaxRiceOrder int
	// LPCRoundVariables enables the coefficient-rounding-variant search
	// (lpc.RoundingVariants) for every LPC candidate order, trading search
	// time for a tighter fit. LaxBest enables it regardless of this field.
	LPCRoundVariables bool
	// ComputeMD5 controls whether the encoder hashes the encoded PCM and
	// stamps StreamInfo.MD5sum at Close. When false, MD5sum is left
	// all-zero, signalling "not computed" to decoders.
	ComputeMD5 bool
}

// DefaultConfig returns a 4096-sample fixed block size, SubsetBest
// prediction search, and MD5 verification enabled.
func DefaultConfig() Config {
	return Config{
		MinBlockSize: 4096,
		MaxBlockSize: 4096,
		SubsetMode:   SubsetBest,
		MaxRiceOrder: 8,
		ComputeMD5:   true,
	}
}

// searchConfig derives the encoder's internal search bounds from cfg.
func (cfg Config) searchConfig() searchConfig {
	sc := searchConfig{
		lpcPrecision:   14,
		roundVariables: cfg.LPCRoundVariables || cfg.SubsetMode == LaxBest,
	}
	switch cfg.SubsetMode {
	case SubsetOnlyFixed:
		sc.maxLPCOrder = 0
		sc.maxPartitionOrder = 8
	case LaxMedium, LaxBest:
		sc.maxLPCOrder = lpc.MaxOrder
		sc.maxPartitionOrder = 15
	case SubsetBest:
		fallthrough
	default:
		sc.maxLPCOrder = 12
		sc.maxPartitionOrder = 8
	}
	if cfg.MaxRiceOrder > 0 && cfg.MaxRiceOrder < sc.maxPartitionOrder {
		sc.maxPartitionOrder = cfg.MaxRiceOrder
	}
	return sc
}
