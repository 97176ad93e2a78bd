package model

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// node is one decision node in a regression tree, stored in a flat array.
// Left/Right index into the owning tree's node slice; -1 marks a leaf.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// growTree builds a CART regression tree on the given bootstrap sample,
// choosing each split by sum-of-squared-error reduction over a random subset
// of mtry features.
func growTree(X *mat.Dense, y []float64, sample []int, mtry, maxDepth, minLeaf int, rng *rand.Rand) tree {
	t := tree{}
	t.build(X, y, sample, mtry, maxDepth, minLeaf, rng, 0)
	return t
}

func (t *tree) build(X *mat.Dense, y []float64, sample []int, mtry, maxDepth, minLeaf int, rng *rand.Rand, depth int) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, node{Feature: -1, Left: -1, Right: -1, Value: meanAt(y, sample)})

	if len(sample) < 2*minLeaf || (maxDepth > 0 && depth >= maxDepth) || constantAt(y, sample) {
		return idx
	}

	feature, threshold, ok := bestSplit(X, y, sample, mtry, minLeaf, rng)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range sample {
		if X.At(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	t.Nodes[idx].Feature = feature
	t.Nodes[idx].Threshold = threshold
	l := t.build(X, y, left, mtry, maxDepth, minLeaf, rng, depth+1)
	t.Nodes[idx].Left = l
	r := t.build(X, y, right, mtry, maxDepth, minLeaf, rng, depth+1)
	t.Nodes[idx].Right = r
	return idx
}

// bestSplit scans mtry randomly chosen features and returns the
// (feature, threshold) with the lowest post-split SSE. ok is false when no
// candidate feature admits a split that respects minLeaf.
func bestSplit(X *mat.Dense, y []float64, sample []int, mtry, minLeaf int, rng *rand.Rand) (int, float64, bool) {
	_, p := X.Dims()

	candidates := rng.Perm(p)
	if mtry < len(candidates) {
		candidates = candidates[:mtry]
	}
	// Permutation order is rng-dependent; sort so the argmin scan below is
	// deterministic for a given seed.
	sort.Ints(candidates)

	type pair struct {
		x, y float64
	}
	pairs := make([]pair, len(sample))

	bestSSE := 0.0
	bestFeature, bestThreshold := -1, 0.0
	found := false

	for _, f := range candidates {
		for i, s := range sample {
			pairs[i] = pair{x: X.At(s, f), y: y[s]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

		// Prefix sums let every split position be scored in O(1).
		var sumL, sqL float64
		var sumR, sqR float64
		for _, pr := range pairs {
			sumR += pr.y
			sqR += pr.y * pr.y
		}

		n := len(pairs)
		for k := 0; k < n-1; k++ {
			sumL += pairs[k].y
			sqL += pairs[k].y * pairs[k].y
			sumR -= pairs[k].y
			sqR -= pairs[k].y * pairs[k].y

			if pairs[k].x == pairs[k+1].x {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			sse := (sqL - sumL*sumL/float64(nl)) + (sqR - sumR*sumR/float64(nr))
			if !found || sse < bestSSE {
				found = true
				bestSSE = sse
				bestFeature = f
				bestThreshold = (pairs[k].x + pairs[k+1].x) / 2
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func meanAt(y []float64, sample []int) float64 {
	if len(sample) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sample {
		sum += y[s]
	}
	return sum / float64(len(sample))
}

func constantAt(y []float64, sample []int) bool {
	for _, s := range sample[1:] {
		if y[s] != y[sample[0]] {
			return false
		}
	}
	return true
}
