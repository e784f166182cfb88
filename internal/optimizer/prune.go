package optimizer

import (
	"sort"
)

// box is an axis-aligned sub-region of the unit cube
type box struct {
	lo, hi unitVector
}

func unitBox() box {
	var b box
	for i := range b.hi {
		b.hi[i] = 1
	}
	return b
}

func (b box) center() unitVector {
	var c unitVector
	for i := range c {
		c[i] = (b.lo[i] + b.hi[i]) / 2
	}
	return c
}

// widestDim returns the dimension with the largest extent
func (b box) widestDim() int {
	best, width := 0, b.hi[0]-b.lo[0]
	for i := 1; i < len(b.hi); i++ {
		if w := b.hi[i] - b.lo[i]; w > width {
			best, width = i, w
		}
	}
	return best
}

func (b box) split() (box, box) {
	dim := b.widestDim()
	mid := (b.lo[dim] + b.hi[dim]) / 2
	left, right := b, b
	left.hi[dim] = mid
	right.lo[dim] = mid
	return left, right
}

// pruneSearch runs a branch-and-bound pass: boxes whose surrogate-predicted
// upper bound cannot beat the incumbent are discarded, so the exact
// evaluation budget concentrates on promising regions. Returns the best
// point found and its score, or ok=false when nothing beat the incumbent.
func pruneSearch(s *surrogate, eval func(unitVector) float64, incumbent float64, budget int) (unitVector, float64, bool) {
	var best unitVector
	bestScore := incumbent
	improved := false

	if !s.usable() || budget <= 0 {
		return best, bestScore, false
	}

	queue := []box{unitBox()}
	evals := 0
	for len(queue) > 0 && evals < budget {
		// Most promising box first
		sort.Slice(queue, func(i, j int) bool {
			return s.upperBound(queue[i].lo, queue[i].hi) > s.upperBound(queue[j].lo, queue[j].hi)
		})
		b := queue[0]
		queue = queue[1:]

		if s.upperBound(b.lo, b.hi) <= bestScore {
			continue // bound cannot beat the incumbent; prune the region
		}

		center := b.center()
		score := eval(center)
		evals++
		if score > bestScore {
			best, bestScore, improved = center, score, true
		}

		// Stop subdividing once boxes get narrow; the refiner takes over
		if b.hi[b.widestDim()]-b.lo[b.widestDim()] > 0.1 {
			l, r := b.split()
			queue = append(queue, l, r)
		}
	}

	return best, bestScore, improved
}
