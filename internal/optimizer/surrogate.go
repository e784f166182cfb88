package optimizer

import (
	"math"
	"math/rand"

	"pmcestimator/domain/estimate"
)

// surrogate is a small ensemble of regression trees fit on scout
// evaluations. It ranks unseen regions cheaply and supplies optimistic
// bounds for branch-and-bound pruning; it never replaces exact evaluation
// of a winning candidate.
type surrogate struct {
	trees []*regressionTree
}

type regressionTree struct {
	root *treeNode
}

type treeNode struct {
	dim       int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64 // leaf prediction
	leaf      bool
}

const (
	treeMinLeaf       = 5
	treeSplitCandidates = 8
)

// fitSurrogate trains an ensemble of depth-bounded regression trees on
// bootstrap resamples of the scout data
func fitSurrogate(xs []unitVector, ys []float64, trees, depth int, rng *rand.Rand) *surrogate {
	s := &surrogate{}
	if len(xs) < 2*treeMinLeaf {
		return s
	}

	for t := 0; t < trees; t++ {
		bx := make([]unitVector, len(xs))
		by := make([]float64, len(ys))
		for i := range bx {
			j := rng.Intn(len(xs))
			bx[i] = xs[j]
			by[i] = ys[j]
		}
		s.trees = append(s.trees, &regressionTree{root: buildNode(bx, by, depth, rng)})
	}
	return s
}

func buildNode(xs []unitVector, ys []float64, depth int, rng *rand.Rand) *treeNode {
	if depth <= 0 || len(xs) < 2*treeMinLeaf {
		return &treeNode{leaf: true, value: meanOf(ys)}
	}

	bestDim, bestThreshold, bestSSE := -1, 0.0, math.Inf(1)
	for dim := 0; dim < estimate.SliderCount; dim++ {
		for c := 0; c < treeSplitCandidates; c++ {
			threshold := rng.Float64()
			sse, ok := splitSSE(xs, ys, dim, threshold)
			if ok && sse < bestSSE {
				bestDim, bestThreshold, bestSSE = dim, threshold, sse
			}
		}
	}
	if bestDim < 0 {
		return &treeNode{leaf: true, value: meanOf(ys)}
	}

	var lx, rx []unitVector
	var ly, ry []float64
	for i, x := range xs {
		if x[bestDim] < bestThreshold {
			lx = append(lx, x)
			ly = append(ly, ys[i])
		} else {
			rx = append(rx, x)
			ry = append(ry, ys[i])
		}
	}

	return &treeNode{
		dim:       bestDim,
		threshold: bestThreshold,
		left:      buildNode(lx, ly, depth-1, rng),
		right:     buildNode(rx, ry, depth-1, rng),
	}
}

// splitSSE computes the summed squared error of a candidate split; ok is
// false when either side would fall under the minimum leaf size
func splitSSE(xs []unitVector, ys []float64, dim int, threshold float64) (float64, bool) {
	var lSum, lSq, rSum, rSq float64
	var lN, rN int
	for i, x := range xs {
		if x[dim] < threshold {
			lSum += ys[i]
			lSq += ys[i] * ys[i]
			lN++
		} else {
			rSum += ys[i]
			rSq += ys[i] * ys[i]
			rN++
		}
	}
	if lN < treeMinLeaf || rN < treeMinLeaf {
		return 0, false
	}

	lSSE := lSq - lSum*lSum/float64(lN)
	rSSE := rSq - rSum*rSum/float64(rN)
	return lSSE + rSSE, true
}

func meanOf(ys []float64) float64 {
	if len(ys) == 0 {
		return 0
	}
	sum := 0.0
	for _, y := range ys {
		sum += y
	}
	return sum / float64(len(ys))
}

// usable reports whether the ensemble was actually trained
func (s *surrogate) usable() bool {
	return len(s.trees) > 0
}

// predict returns the ensemble-mean estimate of the objective at u
func (s *surrogate) predict(u unitVector) float64 {
	if !s.usable() {
		return 0
	}
	sum := 0.0
	for _, tree := range s.trees {
		sum += tree.root.eval(u)
	}
	return sum / float64(len(s.trees))
}

func (n *treeNode) eval(u unitVector) float64 {
	for !n.leaf {
		if u[n.dim] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// upperBound returns an optimistic estimate of the best objective value
// reachable inside the axis-aligned box [lo, hi]: per tree, the maximum
// over every leaf the box can reach.
func (s *surrogate) upperBound(lo, hi unitVector) float64 {
	if !s.usable() {
		return math.Inf(1)
	}
	sum := 0.0
	for _, tree := range s.trees {
		sum += tree.root.maxInBox(lo, hi)
	}
	return sum / float64(len(s.trees))
}

func (n *treeNode) maxInBox(lo, hi unitVector) float64 {
	if n.leaf {
		return n.value
	}
	// Follow only the branches the box overlaps
	switch {
	case hi[n.dim] < n.threshold:
		return n.left.maxInBox(lo, hi)
	case lo[n.dim] >= n.threshold:
		return n.right.maxInBox(lo, hi)
	default:
		return math.Max(n.left.maxInBox(lo, hi), n.right.maxInBox(lo, hi))
	}
}
