// Package segment implements offline change point detection on a single
// numeric signal using a least-squares (L2) segment cost.
//
// Breakpoint lists follow the usual convention: indices are ascending, each
// marks the first sample of a new segment, and the final entry is always the
// signal length.
package segment

import (
	"errors"
	"math"
	"sort"
)

// DefaultMinSize is the shortest segment either algorithm will produce.
const DefaultMinSize = 2

var ErrEmptySignal = errors.New("segment: empty signal")

// l2 precomputes prefix sums so the cost of any segment is O(1).
type l2 struct {
	sum   []float64
	sumSq []float64
}

func newL2(signal []float64) *l2 {
	c := &l2{
		sum:   make([]float64, len(signal)+1),
		sumSq: make([]float64, len(signal)+1),
	}
	for i, v := range signal {
		c.sum[i+1] = c.sum[i] + v
		c.sumSq[i+1] = c.sumSq[i] + v*v
	}
	return c
}

// cost is the sum of squared deviations from the mean of signal[a:b].
func (c *l2) cost(a, b int) float64 {
	n := float64(b - a)
	if n <= 0 {
		return 0
	}
	s := c.sum[b] - c.sum[a]
	v := c.sumSq[b] - c.sumSq[a] - s*s/n
	if v < 0 {
		// rounding
		return 0
	}
	return v
}

// Binseg is greedy binary segmentation.
type Binseg struct {
	MinSize int
	cost    *l2
	n       int
}

// NewBinseg fits the signal.
func NewBinseg(signal []float64) (*Binseg, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}
	return &Binseg{MinSize: DefaultMinSize, cost: newL2(signal), n: len(signal)}, nil
}

// Predict returns at most nBkps breakpoints plus the terminal index. It stops
// early when no admissible split lowers the total cost.
func (b *Binseg) Predict(nBkps int) []int {
	minSize := b.MinSize
	if minSize < 1 {
		minSize = 1
	}
	bkps := []int{b.n}
	for len(bkps)-1 < nBkps {
		bestGain, bestSplit := 0.0, -1
		start := 0
		for _, end := range bkps {
			for k := start + minSize; k <= end-minSize; k++ {
				gain := b.cost.cost(start, end) - b.cost.cost(start, k) - b.cost.cost(k, end)
				if gain > bestGain {
					bestGain, bestSplit = gain, k
				}
			}
			start = end
		}
		if bestSplit < 0 || bestGain <= 1e-12 {
			break
		}
		bkps = append(bkps, bestSplit)
		sort.Ints(bkps)
	}
	return bkps
}

// Pelt is penalized exact segmentation with pruning.
type Pelt struct {
	MinSize int
	cost    *l2
	n       int
}

// NewPelt fits the signal.
func NewPelt(signal []float64) (*Pelt, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}
	return &Pelt{MinSize: DefaultMinSize, cost: newL2(signal), n: len(signal)}, nil
}

// Predict minimizes total segment cost plus penalty per breakpoint.
func (p *Pelt) Predict(penalty float64) []int {
	minSize := p.MinSize
	if minSize < 1 {
		minSize = 1
	}
	n := p.n
	if n < 2*minSize {
		return []int{n}
	}

	f := make([]float64, n+1)
	last := make([]int, n+1)
	for i := range f {
		f[i] = math.Inf(1)
	}
	f[0] = -penalty

	candidates := []int{0}
	for t := minSize; t <= n; t++ {
		best, bestS := math.Inf(1), 0
		for _, s := range candidates {
			if t-s < minSize {
				continue
			}
			if v := f[s] + p.cost.cost(s, t) + penalty; v < best {
				best, bestS = v, s
			}
		}
		f[t], last[t] = best, bestS

		kept := candidates[:0]
		for _, s := range candidates {
			if s == 0 || t-s < minSize || f[s]+p.cost.cost(s, t) <= f[t] {
				kept = append(kept, s)
			}
		}
		candidates = append(kept, t)
	}

	var bkps []int
	for t := n; t > 0; t = last[t] {
		bkps = append(bkps, t)
	}
	sort.Ints(bkps)
	return bkps
}
