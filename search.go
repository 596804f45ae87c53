package flac

import (
	"github.com/go-flac/flac/frame"
	"github.com/go-flac/flac/lpc"
)

// searchConfig bounds the encoder's cost search. It is derived from the
// public Config by Config.searchConfig.
type searchConfig struct {
	maxLPCOrder       int
	lpcPrecision      int
	maxPartitionOrder int
	// roundVariables enables lpc.RoundingVariants for every LPC candidate
	// order, widening the search beyond a single rounded quantisation.
	roundVariables bool
}

// chooseChannels picks the stream channel assignment for a block, per
// RFC 9639's four two-channel decorrelation modes, evaluating each by its
// total planned subframe cost. Blocks with channel counts other than 2 use
// the independent channel assignment implied by their count.
func chooseChannels(channels [][]int64, bps uint8, cfg searchConfig) (frame.Channels, []*frame.Subframe, []uint, error) {
	if len(channels) != 2 {
		ch := frame.Channels(len(channels) - 1)
		subframes, subBps := frame.BuildSubframes(ch, bps, channels)
		if err := planAll(subframes, subBps, cfg); err != nil {
			return 0, nil, nil, err
		}
		return ch, subframes, subBps, nil
	}

	candidates := []frame.Channels{frame.ChannelsLR, frame.ChannelsLeftSide, frame.ChannelsSideRight, frame.ChannelsMidSide}
	var bestCh frame.Channels
	var bestSub []*frame.Subframe
	var bestBps []uint
	bestCost := -1
	for _, ch := range candidates {
		subframes, subBps := frame.BuildSubframes(ch, bps, channels)
		if err := planAll(subframes, subBps, cfg); err != nil {
			return 0, nil, nil, err
		}
		cost := 0
		for i, sf := range subframes {
			cost += sf.Bits(subBps[i])
		}
		if bestCost == -1 || cost < bestCost {
			bestCost = cost
			bestCh = ch
			bestSub = subframes
			bestBps = subBps
		}
	}
	return bestCh, bestSub, bestBps, nil
}

func planAll(subframes []*frame.Subframe, subBps []uint, cfg searchConfig) error {
	for i, sf := range subframes {
		if err := planSubframe(sf, subBps[i], cfg); err != nil {
			return err
		}
	}
	return nil
}

// planSubframe picks the cheapest of constant/verbatim/fixed/LPC prediction
// for sf, leaving it ready for Subframe.Encode.
func planSubframe(sf *frame.Subframe, bps uint, cfg searchConfig) error {
	effective := shiftRight(sf.Samples, sf.Wasted)

	if isConstant(effective) {
		sf.Pred = frame.PredConstant
		sf.Order = 0
		return nil
	}

	best := *sf
	best.Pred = frame.PredVerbatim
	best.Order = 0
	bestBits := best.Bits(bps)

	maxFixed := 4
	if maxFixed >= sf.NSamples {
		maxFixed = sf.NSamples - 1
	}
	for order := 0; order <= maxFixed; order++ {
		cand := *sf
		cand.Pred = frame.PredFixed
		cand.Order = order
		if err := cand.PlanSubframe(cfg.maxPartitionOrder); err != nil {
			continue
		}
		if bits := cand.Bits(bps); bits < bestBits {
			bestBits = bits
			best = cand
		}
	}

	maxOrder := cfg.maxLPCOrder
	if maxOrder > lpc.MaxOrder {
		maxOrder = lpc.MaxOrder
	}
	if maxOrder >= sf.NSamples {
		maxOrder = sf.NSamples - 1
	}
	if maxOrder >= 1 {
		fits, err := lpc.FitAllOrders(effective, maxOrder)
		if err == nil {
			for _, fit := range fits {
				var variants []*lpc.Quantised
				if cfg.roundVariables {
					variants = lpc.RoundingVariants(fit.A, cfg.lpcPrecision, 4)
				} else if q, err := lpc.Quantise(fit.A, cfg.lpcPrecision); err == nil {
					variants = []*lpc.Quantised{q}
				}
				for _, q := range variants {
					cand := *sf
					cand.Pred = frame.PredFIR
					cand.Order = fit.Order
					cand.Coeffs = q.Coeffs
					cand.Shift = q.Shift
					cand.Precision = q.Precision
					if err := cand.PlanSubframe(cfg.maxPartitionOrder); err != nil {
						continue
					}
					if bits := cand.Bits(bps); bits < bestBits {
						bestBits = bits
						best = cand
					}
				}
			}
		}
	}

	*sf = best
	return nil
}

func isConstant(samples []int64) bool {
	if len(samples) == 0 {
		return true
	}
	first := samples[0]
	for _, s := range samples[1:] {
		if s != first {
			return false
		}
	}
	return true
}

// shiftRight returns samples shifted right by n, the view Subframe.Encode
// and PlanSubframe actually operate on once wasted bits are accounted for.
func shiftRight(samples []int64, n uint) []int64 {
	if n == 0 {
		return samples
	}
	out := make([]int64, len(samples))
	for i, s := range samples {
		out[i] = s >> n
	}
	return out
}
