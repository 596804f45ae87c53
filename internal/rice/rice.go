// Package rice implements partitioned Rice coding of subframe residuals:
// searching for the cheapest partition order and per-partition parameter,
// and encoding/decoding the chosen plan.
package rice

import (
	"math/bits"

	flacbits "github.com/go-flac/flac/internal/bits"
	"github.com/go-flac/flac/internal/xerr"
)

const (
	maxK     = 14 // highest normal Rice parameter; 15 signals escape
	escape4  = 15
	escape5  = 31
	maxOrder = 15
)

// Method selects the bit width of the per-partition parameter field.
type Method uint8

const (
	Method4Bit Method = 0
	Method5Bit Method = 1
)

// Plan is the cheapest partitioned Rice encoding found for one subframe's
// residual sequence.
type Plan struct {
	Method   Method
	Order    uint8
	Params   []uint8 // per-partition Rice parameter, or the escape code
	EscWidth []uint8 // per-partition raw bit width; valid where Params[i] is an escape code
	Bits     int     // total bits this plan costs, including the 6-bit method+order header
}

// node accumulates the statistics of a contiguous run of residuals needed to
// pick its cheapest Rice parameter or escape width. costs and orAbs combine
// associatively, so finer-grained nodes can be pairwise-merged into coarser
// ones without rescanning the residuals.
type node struct {
	costs [maxK + 1]int
	orAbs uint64
	n     int
}

func leaf(res []int64) node {
	var nd node
	nd.n = len(res)
	for _, r := range res {
		u := flacbits.EncodeZigZag(r)
		for k := 0; k <= maxK; k++ {
			nd.costs[k] += int(u>>uint(k)) + 1 + k
		}
		a := r
		if a < 0 {
			a = -a
		}
		nd.orAbs |= uint64(a)
	}
	return nd
}

func merge(a, b node) node {
	var nd node
	nd.n = a.n + b.n
	nd.orAbs = a.orAbs | b.orAbs
	for k := range nd.costs {
		nd.costs[k] = a.costs[k] + b.costs[k]
	}
	return nd
}

func (nd node) bestParam() (k uint8, bitCost int) {
	bitCost = nd.costs[0]
	for i := 1; i <= maxK; i++ {
		if nd.costs[i] < bitCost {
			bitCost = nd.costs[i]
			k = uint8(i)
		}
	}
	return k, bitCost
}

func (nd node) escWidth() uint8 {
	l := 64 - bits.LeadingZeros64(nd.orAbs)
	return uint8(l + 1)
}

func (nd node) escBits() int {
	return nd.n * int(nd.escWidth())
}

// chosen returns the cheapest representation of nd: either a Rice parameter
// with its payload bit cost, or an escape partition with its raw width and
// payload bit cost.
func (nd node) chosen() (param uint8, escape bool, width uint8, payloadBits int) {
	k, kBits := nd.bestParam()
	eBits := nd.escBits()
	w := nd.escWidth()
	if eBits+5 < kBits && w <= 31 {
		return 0, true, w, eBits
	}
	return k, false, 0, kBits
}

// BestPlan searches partition orders 0..maxPartitionOrder (capped at the
// largest order that evenly divides blockSize and leaves the first
// partition non-empty) and returns the cheapest plan for residuals, whose
// length must equal blockSize-predOrder.
func BestPlan(residuals []int64, predOrder, blockSize, maxPartitionOrder int) (*Plan, error) {
	if blockSize <= 0 {
		return nil, xerr.New(xerr.InvalidArgument, "rice: block size must be positive, got %d", blockSize)
	}
	if len(residuals) != blockSize-predOrder {
		return nil, xerr.New(xerr.InvalidArgument, "rice: residual count %d does not match blockSize-predOrder %d", len(residuals), blockSize-predOrder)
	}
	if maxPartitionOrder > maxOrder {
		maxPartitionOrder = maxOrder
	}

	maxP := 0
	for p := 1; p <= maxPartitionOrder; p++ {
		if blockSize%(1<<uint(p)) != 0 {
			break
		}
		if blockSize>>uint(p) <= predOrder {
			break
		}
		maxP = p
	}

	numLeaves := 1 << uint(maxP)
	leafLen := blockSize / numLeaves
	leaves := make([]node, numLeaves)
	off := 0
	for i := 0; i < numLeaves; i++ {
		n := leafLen
		if i == 0 {
			n -= predOrder
		}
		leaves[i] = leaf(residuals[off : off+n])
		off += n
	}

	levels := make([][]node, maxP+1)
	levels[maxP] = leaves
	for p := maxP - 1; p >= 0; p-- {
		prev := levels[p+1]
		cur := make([]node, len(prev)/2)
		for i := range cur {
			cur[i] = merge(prev[2*i], prev[2*i+1])
		}
		levels[p] = cur
	}

	best := (*Plan)(nil)
	for p := 0; p <= maxP; p++ {
		parts := levels[p]
		params := make([]uint8, len(parts))
		escWidths := make([]uint8, len(parts))
		sum := 0
		for i, nd := range parts {
			param, escape, width, payload := nd.chosen()
			if escape {
				params[i] = escape4
				escWidths[i] = width
				sum += 5 + payload
			} else {
				params[i] = param
				sum += payload
			}
		}
		total := 6 + len(parts)*4 + sum
		if best == nil || total < best.Bits {
			best = &Plan{
				Method:   Method4Bit,
				Order:    uint8(p),
				Params:   params,
				EscWidth: escWidths,
				Bits:     total,
			}
		}
	}
	return best, nil
}

func paramFieldWidth(m Method) (width uint, escCode uint64) {
	if m == Method5Bit {
		return 5, escape5
	}
	return 4, escape4
}

// Write emits the plan's partitioned Rice encoding of residuals.
func (p *Plan) Write(bw *flacbits.Writer, residuals []int64, predOrder, blockSize int) error {
	if err := bw.WriteUint(2, uint64(p.Method)); err != nil {
		return err
	}
	if err := bw.WriteUint(4, uint64(p.Order)); err != nil {
		return err
	}
	paramBits, escCode := paramFieldWidth(p.Method)
	numParts := 1 << p.Order
	partLen := blockSize / numParts
	off := 0
	for i := 0; i < numParts; i++ {
		n := partLen
		if i == 0 {
			n -= predOrder
		}
		part := residuals[off : off+n]
		off += n

		if uint64(p.Params[i]) == escCode {
			if err := bw.WriteUint(paramBits, escCode); err != nil {
				return err
			}
			width := uint(p.EscWidth[i])
			if width > 31 {
				return xerr.New(xerr.Overflow, "rice: escape partition width %d exceeds the 5-bit field", width)
			}
			if err := bw.WriteUint(5, uint64(width)); err != nil {
				return err
			}
			mask := uint64(1)<<width - 1
			for _, r := range part {
				if err := bw.Write(uint8(width), uint64(r)&mask); err != nil {
					return err
				}
			}
			continue
		}

		k := uint(p.Params[i])
		if err := bw.WriteUint(paramBits, uint64(p.Params[i])); err != nil {
			return err
		}
		for _, r := range part {
			u := flacbits.EncodeZigZag(r)
			if err := bw.WriteUnary(u >> k); err != nil {
				return err
			}
			if k > 0 {
				if err := bw.Write(uint8(k), u&(uint64(1)<<k-1)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Decode reads a partitioned Rice encoding of blockSize-predOrder residuals.
func Decode(br *flacbits.Reader, predOrder, blockSize int) ([]int64, error) {
	methodBits, err := br.ReadUint(2)
	if err != nil {
		return nil, err
	}
	method := Method(methodBits)
	if method != Method4Bit && method != Method5Bit {
		return nil, xerr.New(xerr.DataFormat, "rice: invalid residual coding method %d", methodBits)
	}
	orderBits, err := br.ReadUint(4)
	if err != nil {
		return nil, err
	}
	order := int(orderBits)
	numParts := 1 << uint(order)
	if blockSize%numParts != 0 {
		return nil, xerr.New(xerr.DataFormat, "rice: block size %d not divisible by %d partitions", blockSize, numParts)
	}
	partLen := blockSize / numParts
	if partLen <= predOrder && numParts > 1 {
		return nil, xerr.New(xerr.DataFormat, "rice: partition length %d too small for predictor order %d", partLen, predOrder)
	}

	paramBits, escCode := paramFieldWidth(method)
	res := make([]int64, 0, blockSize-predOrder)
	for i := 0; i < numParts; i++ {
		n := partLen
		if i == 0 {
			n -= predOrder
		}
		if n < 0 {
			return nil, xerr.New(xerr.DataFormat, "rice: partition shorter than predictor order")
		}

		param, err := br.ReadUint(paramBits)
		if err != nil {
			return nil, err
		}
		if param == escCode {
			widthU, err := br.ReadUint(5)
			if err != nil {
				return nil, err
			}
			width := uint(widthU)
			for j := 0; j < n; j++ {
				v, err := br.Read(uint8(width))
				if err != nil {
					return nil, err
				}
				res = append(res, flacbits.IntN(v, width))
			}
			continue
		}

		k := uint(param)
		limit := uint64(1) << (53 - k)
		for j := 0; j < n; j++ {
			q, err := br.ReadUnary()
			if err != nil {
				return nil, err
			}
			if q > limit {
				return nil, xerr.New(xerr.Overflow, "rice: unary quotient %d exceeds safety limit for param %d", q, k)
			}
			var u uint64
			if k > 0 {
				rem, err := br.Read(uint8(k))
				if err != nil {
					return nil, err
				}
				u = q<<k | rem
			} else {
				u = q
			}
			res = append(res, flacbits.DecodeZigZag(u))
		}
	}
	return res, nil
}
