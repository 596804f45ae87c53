// Package lpc fits linear-predictive-coding coefficients to a block of
// audio samples: windowed autocorrelation, a Gauss-Jordan least-squares
// solve via gonum, and quantisation to the fixed-point integer coefficients
// the FLAC LPC subframe format carries on the wire.
package lpc

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/go-flac/flac/internal/xerr"
)

// MaxOrder is the highest LPC order this package will fit.
const MaxOrder = 32

// autocorrelate returns lags[0..maxOrder] of the autocorrelation of a
// Welch-windowed copy of samples: autoc[d] = sum_k samples[k]*samples[k+d].
func autocorrelate(samples []float64, maxOrder int) []float64 {
	n := len(samples)
	windowed := make([]float64, n)
	// Welch window tapers the block edges, reducing spectral leakage in the
	// autocorrelation estimate without the cost of a full FFT-based method.
	m := float64(n-1) / 2
	for i, s := range samples {
		t := (float64(i) - m) / m
		windowed[i] = s * (1 - t*t)
	}

	autoc := make([]float64, maxOrder+1)
	for d := 0; d <= maxOrder && d < n; d++ {
		var sum float64
		for k := 0; k < n-d; k++ {
			sum += windowed[k] * windowed[k+d]
		}
		autoc[d] = sum
	}
	return autoc
}

// Coeffs holds an unquantised LPC fit of a given order; Err is the Levinson
// prediction error estimate for that order, used by the caller to compare
// candidate orders without a full quantised cost evaluation.
type Coeffs struct {
	Order int
	A     []float64 // unquantised coefficients, length Order
	Err   float64
}

// FitAllOrders runs Levinson-Durbin recursion over the block's
// autocorrelation once, returning the unquantised coefficients (and
// Levinson error estimate) for every order from 1 to maxOrder. This reuses
// the same autocorrelation vector across all orders, matching the
// recursive structure of the classical LPC fitting algorithm.
func FitAllOrders(samples []int64, maxOrder int) ([]Coeffs, error) {
	if maxOrder < 1 || maxOrder > MaxOrder {
		return nil, xerr.New(xerr.InvalidArgument, "lpc: order must be in [1,%d], got %d", MaxOrder, maxOrder)
	}
	n := len(samples)
	if n <= maxOrder {
		return nil, xerr.New(xerr.InvalidArgument, "lpc: block of %d samples too short for order %d", n, maxOrder)
	}

	fsamples := make([]float64, n)
	for i, s := range samples {
		fsamples[i] = float64(s)
	}
	autoc := autocorrelate(fsamples, maxOrder)

	if autoc[0] == 0 {
		return nil, xerr.New(xerr.DataFormat, "lpc: zero-energy block cannot be LPC-fitted")
	}

	out := make([]Coeffs, maxOrder)
	a := make([]float64, maxOrder+1)
	err := autoc[0]
	for i := 1; i <= maxOrder; i++ {
		var acc float64
		for j := 1; j < i; j++ {
			acc += a[j] * autoc[i-j]
		}
		k := -(autoc[i] + acc) / err
		a[i] = k

		half := i / 2
		for j := 1; j <= half; j++ {
			tmp := a[j]
			a[j] = tmp + k*a[i-j]
			if j != i-j {
				a[i-j] += k * tmp
			}
		}
		err *= 1 - k*k
		if err <= 0 {
			err = 1e-9
		}

		coeffs := make([]float64, i)
		// LPC predicts x[n] from -sum(a[j]*x[n-j]); a[] above are the
		// Levinson reflection-derived linear-prediction coefficients.
		for j := 0; j < i; j++ {
			coeffs[j] = -a[j+1]
		}
		out[i-1] = Coeffs{Order: i, A: coeffs, Err: err}
	}
	return out, nil
}

// Fit solves for order-th order LPC coefficients directly via a Gauss-Jordan
// normal-equations solve, as an independent cross-check / fallback to the
// Levinson recursion in FitAllOrders.
func Fit(samples []int64, order int) (*Coeffs, error) {
	if order < 1 || order > MaxOrder {
		return nil, xerr.New(xerr.InvalidArgument, "lpc: order must be in [1,%d], got %d", MaxOrder, order)
	}
	n := len(samples)
	if n <= order {
		return nil, xerr.New(xerr.InvalidArgument, "lpc: block of %d samples too short for order %d", n, order)
	}

	fsamples := make([]float64, n)
	for i, s := range samples {
		fsamples[i] = float64(s)
	}
	autoc := autocorrelate(fsamples, order)

	m := mat.NewDense(order, order, nil)
	for r := 0; r < order; r++ {
		for c := 0; c < order; c++ {
			m.Set(r, c, autoc[absInt(r-c)])
		}
	}
	rhs := mat.NewVecDense(order, nil)
	for r := 0; r < order; r++ {
		rhs.SetVec(r, autoc[r+1])
	}

	var x mat.VecDense
	if err := x.SolveVec(m, rhs); err != nil {
		return nil, xerr.Wrap(xerr.DataFormat, err)
	}

	coeffs := make([]float64, order)
	for i := range coeffs {
		coeffs[i] = x.AtVec(i)
	}
	return &Coeffs{Order: order, A: coeffs}, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Quantised is the fixed-point form of an LPC filter ready for the wire:
// Precision-bit signed coefficients and a non-negative shift, satisfying
// x[i] ~= (sum(Coeffs[j]*x[i-1-j])) >> Shift.
type Quantised struct {
	Coeffs    []int64
	Shift     int
	Precision int
}

// Quantise converts unquantised LPC coefficients to fixed-point form at the
// given precision (bits per coefficient, excluding sign... i.e. total
// signed width), per the classical shift derivation: shift = precision - 1
// - wholeBits, where wholeBits = floor(log2(maxCoeff))+1 (0 if maxCoeff<1).
func Quantise(a []float64, precision int) (*Quantised, error) {
	if precision < 1 || precision > 15 {
		return nil, xerr.New(xerr.InvalidArgument, "lpc: precision must be in [1,15], got %d", precision)
	}
	maxCoef := 0.0
	for _, c := range a {
		if ac := math.Abs(c); ac > maxCoef {
			maxCoef = ac
		}
	}
	wholeBits := 0
	if maxCoef >= 1 {
		wholeBits = int(math.Floor(math.Log2(maxCoef))) + 1
	}
	shift := precision - 1 - wholeBits
	if shift > 31 {
		shift = 31
	}
	if shift < 0 {
		shift = 0
	}

	lo := -(int64(1) << uint(precision-1))
	hi := int64(1)<<uint(precision-1) - 1

	q := &Quantised{Coeffs: make([]int64, len(a)), Shift: shift, Precision: precision}
	var carry float64
	for i, c := range a {
		scaled := c*float64(int64(1)<<uint(shift)) + carry
		rounded := math.Round(scaled)
		carry = scaled - rounded
		v := int64(rounded)
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		q.Coeffs[i] = v
	}
	return q, nil
}

// RoundingVariants enumerates up to 2^k floor/ceil combinations for the k
// coefficients with the largest rounding residue, letting the search
// orchestrator pick the variant with the smallest actual Rice-coded cost.
// k is capped at 4, bounding the search to at most 16 variants.
func RoundingVariants(a []float64, precision, k int) []*Quantised {
	if k > 4 {
		k = 4
	}
	base, err := Quantise(a, precision)
	if err != nil || k <= 0 {
		if err != nil {
			return nil
		}
		return []*Quantised{base}
	}

	type residue struct {
		idx  int
		frac float64
	}
	scale := float64(int64(1) << uint(base.Shift))
	residues := make([]residue, len(a))
	for i, c := range a {
		scaled := c * scale
		// Rounding residue: distance from scaled to its nearest integer.
		frac := scaled - math.Floor(scaled)
		if frac > 0.5 {
			frac = 1 - frac
		}
		residues[i] = residue{idx: i, frac: frac}
	}
	// Selection sort descending by rounding residue; k is small so O(k*n)
	// is preferable to importing a sort-by-key helper for this one use.
	for i := 0; i < k && i < len(residues); i++ {
		best := i
		for j := i + 1; j < len(residues); j++ {
			if residues[j].frac > residues[best].frac {
				best = j
			}
		}
		residues[i], residues[best] = residues[best], residues[i]
	}
	if k > len(residues) {
		k = len(residues)
	}
	varyIdx := make([]int, k)
	for i := 0; i < k; i++ {
		varyIdx[i] = residues[i].idx
	}

	lo := -(int64(1) << uint(precision-1))
	hi := int64(1)<<uint(precision-1) - 1

	variants := make([]*Quantised, 0, 1<<uint(k))
	for mask := 0; mask < 1<<uint(k); mask++ {
		v := &Quantised{Coeffs: append([]int64(nil), base.Coeffs...), Shift: base.Shift, Precision: precision}
		for bit, idx := range varyIdx {
			scaled := a[idx] * scale
			floor := int64(math.Floor(scaled))
			var rounded int64
			if mask&(1<<uint(bit)) != 0 {
				rounded = floor + 1
			} else {
				rounded = floor
			}
			if rounded < lo {
				rounded = lo
			} else if rounded > hi {
				rounded = hi
			}
			v.Coeffs[idx] = rounded
		}
		variants = append(variants, v)
	}
	return variants
}
