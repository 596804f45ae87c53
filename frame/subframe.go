package frame

import (
	"github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/rice"
	"github.com/go-flac/flac/internal/xerr"
)

// Pred identifies a subframe's prediction method.
type Pred uint8

const (
	PredConstant Pred = iota
	PredVerbatim
	PredFixed
	PredFIR // LPC
)

func (p Pred) String() string {
	switch p {
	case PredConstant:
		return "constant"
	case PredVerbatim:
		return "verbatim"
	case PredFixed:
		return "fixed"
	case PredFIR:
		return "LPC"
	default:
		return "unknown"
	}
}

// FixedCoeffs holds the predictor coefficients for fixed prediction orders
// 0 through 4, cf. RFC 9639 §9.2.3.
var FixedCoeffs = [5][]int64{
	0: {},
	1: {1},
	2: {2, -1},
	3: {3, -3, 1},
	4: {4, -6, 4, -1},
}

// SubHeader is the common 1+6+(1+k) bit prefix shared by every subframe.
type SubHeader struct {
	Pred Pred
	// Order is the fixed-predictor order (0-4) or LPC order (1-32).
	Order int
	// Wasted is the number of trailing zero bits shared by every sample in
	// the subblock. Samples keeps them; they are shifted out when encoding
	// and restored when decoding.
	Wasted uint
}

// Subframe holds one channel's share of a block, either as decoded samples
// (decode path) or as the inputs an encoder needs to reproduce them
// (encode path).
type Subframe struct {
	SubHeader
	// Samples holds the subframe's samples at full precision (wasted bits
	// included), length NSamples. For Fixed/LPC these are the true channel samples the
	// predictor runs over; residuals are recomputed on demand.
	Samples []int64
	// NSamples is the block size in samples (subframe sample count).
	NSamples int
	// LPC coefficients and shift; meaningful only when Pred == PredFIR.
	Coeffs    []int64
	Shift     int
	Precision int

	rice *rice.Plan
}

// parseSubframeHeader reads the 1-bit padding, 6-bit type and wasted-bits
// unary prefix shared by all subframes.
func parseSubframeHeader(br *bits.Reader) (SubHeader, error) {
	pad, err := br.ReadUint(1)
	if err != nil {
		return SubHeader{}, err
	}
	if pad != 0 {
		return SubHeader{}, xerr.New(xerr.ReservedValue, "frame: subframe padding bit must be 0")
	}

	typ, err := br.ReadUint(6)
	if err != nil {
		return SubHeader{}, err
	}

	var hdr SubHeader
	switch {
	case typ == 0x00:
		hdr.Pred = PredConstant
	case typ == 0x01:
		hdr.Pred = PredVerbatim
	case typ >= 0x08 && typ <= 0x0C:
		hdr.Pred = PredFixed
		hdr.Order = int(typ - 0x08)
	case typ >= 0x20:
		hdr.Pred = PredFIR
		hdr.Order = int(typ-0x20) + 1
	default:
		return SubHeader{}, xerr.New(xerr.ReservedValue, "frame: reserved subframe type 0x%02X", typ)
	}

	hasWasted, err := br.ReadBool()
	if err != nil {
		return SubHeader{}, err
	}
	if hasWasted {
		u, err := br.ReadUnary()
		if err != nil {
			return SubHeader{}, err
		}
		hdr.Wasted = uint(u) + 1
	}
	return hdr, nil
}

func (hdr SubHeader) encode(bw *bits.Writer) error {
	if err := bw.Write(1, 0); err != nil {
		return err
	}
	var typ uint64
	switch hdr.Pred {
	case PredConstant:
		typ = 0x00
	case PredVerbatim:
		typ = 0x01
	case PredFixed:
		typ = 0x08 | uint64(hdr.Order)
	case PredFIR:
		typ = 0x20 | uint64(hdr.Order-1)
	}
	if err := bw.Write(6, typ); err != nil {
		return err
	}
	if hdr.Wasted == 0 {
		return bw.WriteBool(false)
	}
	if err := bw.WriteBool(true); err != nil {
		return err
	}
	return bw.WriteUnary(uint64(hdr.Wasted - 1))
}

// ParseSubframe reads and parses one subframe carrying nsamples samples at
// the given bit depth, from which the subframe's wasted bits are subtracted.
func ParseSubframe(br *bits.Reader, nsamples int, bps uint) (*Subframe, error) {
	hdr, err := parseSubframeHeader(br)
	if err != nil {
		return nil, err
	}
	effBps := bps - hdr.Wasted

	sf := &Subframe{SubHeader: hdr, NSamples: nsamples}
	switch hdr.Pred {
	case PredConstant:
		v, err := br.ReadSigned(uint(effBps))
		if err != nil {
			return nil, err
		}
		sf.Samples = make([]int64, nsamples)
		for i := range sf.Samples {
			sf.Samples[i] = v
		}
	case PredVerbatim:
		sf.Samples = make([]int64, nsamples)
		for i := range sf.Samples {
			v, err := br.ReadSigned(uint(effBps))
			if err != nil {
				return nil, err
			}
			sf.Samples[i] = v
		}
	case PredFixed:
		if err := decodePredictedSamples(br, sf, FixedCoeffs[hdr.Order], 0, effBps); err != nil {
			return nil, err
		}
	case PredFIR:
		precision, err := br.ReadUint(4)
		if err != nil {
			return nil, err
		}
		if precision == 15 {
			return nil, xerr.New(xerr.ReservedValue, "frame: reserved LPC precision code 15")
		}
		sf.Precision = int(precision) + 1

		shift, err := br.ReadSigned(5)
		if err != nil {
			return nil, err
		}
		if shift < 0 {
			return nil, xerr.New(xerr.DataFormat, "frame: negative LPC shift")
		}
		sf.Shift = int(shift)

		sf.Coeffs = make([]int64, hdr.Order)
		for i := range sf.Coeffs {
			c, err := br.ReadSigned(uint(sf.Precision))
			if err != nil {
				return nil, err
			}
			sf.Coeffs[i] = c
		}
		if err := decodePredictedSamples(br, sf, sf.Coeffs, sf.Shift, effBps); err != nil {
			return nil, err
		}
	}

	for i, s := range sf.Samples {
		sf.Samples[i] = s << hdr.Wasted
	}
	return sf, nil
}

// decodePredictedSamples reads the order warmup samples, then the Rice
// coded residuals, restoring the full sample sequence via the predictor.
func decodePredictedSamples(br *bits.Reader, sf *Subframe, coeffs []int64, shift int, effBps uint) error {
	order := len(coeffs)
	sf.Samples = make([]int64, sf.NSamples)
	for i := 0; i < order; i++ {
		v, err := br.ReadSigned(uint(effBps))
		if err != nil {
			return err
		}
		sf.Samples[i] = v
	}
	residuals, err := rice.Decode(br, order, sf.NSamples)
	if err != nil {
		return err
	}
	for i := order; i < sf.NSamples; i++ {
		var pred int64
		for j, c := range coeffs {
			pred += c * sf.Samples[i-1-j]
		}
		if shift > 0 {
			pred >>= uint(shift)
		}
		sf.Samples[i] = residuals[i-order] + pred
	}
	return nil
}

// effective returns sf.Samples shifted right by the wasted-bits count, i.e.
// the reduced-precision values the predictor and warmup fields actually
// operate on.
func (sf *Subframe) effective() []int64 {
	if sf.Wasted == 0 {
		return sf.Samples
	}
	out := make([]int64, len(sf.Samples))
	for i, s := range sf.Samples {
		out[i] = s >> sf.Wasted
	}
	return out
}

// PlanSubframe decides the chosen Rice plan for Fixed/LPC subframes,
// derived from sf.Samples (full precision; the wasted-bits shift is
// applied internally) and sf.SubHeader. It must be called before Encode
// for Fixed/LPC subframes.
func (sf *Subframe) PlanSubframe(maxPartitionOrder int) error {
	switch sf.Pred {
	case PredFixed:
		residuals := fixedResiduals(sf.effective(), sf.Order)
		plan, err := rice.BestPlan(residuals, sf.Order, sf.NSamples, maxPartitionOrder)
		if err != nil {
			return err
		}
		sf.rice = plan
	case PredFIR:
		residuals := lpcResiduals(sf.effective(), sf.Coeffs, sf.Shift)
		plan, err := rice.BestPlan(residuals, sf.Order, sf.NSamples, maxPartitionOrder)
		if err != nil {
			return err
		}
		sf.rice = plan
	}
	return nil
}

// Bits returns the subframe's exact encoded bit cost, used by the search
// orchestrator to compare candidate strategies. PlanSubframe must have been
// called first for Fixed/LPC subframes.
func (sf *Subframe) Bits(bps uint) int {
	effBps := int(bps - sf.Wasted)
	headerBits := 1 + 6 + 1
	if sf.Wasted > 0 {
		headerBits += int(sf.Wasted)
	}
	switch sf.Pred {
	case PredConstant:
		return headerBits + effBps
	case PredVerbatim:
		return headerBits + sf.NSamples*effBps
	case PredFixed:
		return headerBits + sf.Order*effBps + sf.rice.Bits
	case PredFIR:
		return headerBits + sf.Order*effBps + 4 + 5 + sf.Order*sf.Precision + sf.rice.Bits
	default:
		return 0
	}
}

// Encode writes the subframe. PlanSubframe must have been called first for
// Fixed/LPC subframes.
func (sf *Subframe) Encode(bw *bits.Writer, bps uint) error {
	if err := sf.SubHeader.encode(bw); err != nil {
		return err
	}
	effBps := uint(bps) - sf.Wasted
	wasted := sf.effective()

	switch sf.Pred {
	case PredConstant:
		return bw.WriteSigned(effBps, wasted[0])
	case PredVerbatim:
		for _, s := range wasted {
			if err := bw.WriteSigned(effBps, s); err != nil {
				return err
			}
		}
		return nil
	case PredFixed:
		for i := 0; i < sf.Order; i++ {
			if err := bw.WriteSigned(effBps, wasted[i]); err != nil {
				return err
			}
		}
		residuals := fixedResiduals(wasted, sf.Order)
		return sf.rice.Write(bw, residuals, sf.Order, sf.NSamples)
	case PredFIR:
		for i := 0; i < sf.Order; i++ {
			if err := bw.WriteSigned(effBps, wasted[i]); err != nil {
				return err
			}
		}
		if err := bw.WriteUint(4, uint64(sf.Precision-1)); err != nil {
			return err
		}
		if err := bw.WriteSigned(5, int64(sf.Shift)); err != nil {
			return err
		}
		for _, c := range sf.Coeffs {
			if err := bw.WriteSigned(uint(sf.Precision), c); err != nil {
				return err
			}
		}
		residuals := lpcResiduals(wasted, sf.Coeffs, sf.Shift)
		return sf.rice.Write(bw, residuals, sf.Order, sf.NSamples)
	default:
		return xerr.New(xerr.InvalidArgument, "frame: unknown prediction method %v", sf.Pred)
	}
}

// fixedResiduals computes the residual signal of a fixed predictor of the
// given order over samples (which still carry any wasted-bits shift).
func fixedResiduals(samples []int64, order int) []int64 {
	coeffs := FixedCoeffs[order]
	return lpcResiduals(samples, coeffs, 0)
}

// lpcResiduals computes residuals for a (possibly fixed) linear predictor
// with the given integer coefficients and quantisation shift.
func lpcResiduals(samples []int64, coeffs []int64, shift int) []int64 {
	order := len(coeffs)
	res := make([]int64, len(samples)-order)
	for i := order; i < len(samples); i++ {
		var pred int64
		for j, c := range coeffs {
			pred += c * samples[i-1-j]
		}
		if shift > 0 {
			pred >>= uint(shift)
		}
		res[i-order] = samples[i] - pred
	}
	return res
}

// WastedBits returns the number of trailing zero bits shared by every
// sample in block (0 if block is empty or contains a nonzero-LSB sample).
func WastedBits(block []int64) uint {
	var or int64
	for _, s := range block {
		or |= s
	}
	if or == 0 {
		return 0
	}
	var n uint
	for or&1 == 0 {
		or >>= 1
		n++
	}
	return n
}
