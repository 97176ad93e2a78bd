// Package model implements the demand estimator: a bagged ensemble of
// regression trees mapping booking-curve features to final booking counts,
// with a persistable artifact and a deliberately separate ad-hoc quote path.
//
// There are two inference entry points and they do not share feature
// vectors: the batch pipeline predicts over the full multi-bucket matrix from
// demand/features, while QuoteEstimator answers single ad-hoc queries from a
// minimal vector and a freshly reloaded artifact. Keep them distinct; see
// quote.go.
package model

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Config controls training. The defaults reproduce the production batch run.
type Config struct {
	Trees        int     // number of trees in the ensemble
	Seed         int64   // seed for bootstrap sampling and feature subsets
	MaxDepth     int     // 0 = unlimited
	MinLeaf      int     // minimum samples per leaf
	Parallel     bool    // fit trees on all CPUs
	TestFraction float64 // held-out share for the MAE report
}

// DefaultConfig returns the standard training configuration: 150 trees,
// fixed seed, 20% held out.
func DefaultConfig() Config {
	return Config{
		Trees:        150,
		Seed:         42,
		MaxDepth:     0,
		MinLeaf:      1,
		Parallel:     true,
		TestFraction: 0.2,
	}
}

// Forest is a fitted demand estimator. Immutable after Fit; safe for
// concurrent prediction.
type Forest struct {
	Features []string `json:"features"`
	Seed     int64    `json:"seed"`
	Trees    []tree   `json:"trees"`
}

// Fit trains the ensemble on (X, y). Each tree gets its own bootstrap sample
// and a rand source seeded deterministically from cfg.Seed and the tree
// index, so parallel and sequential fits produce identical forests.
func Fit(X *mat.Dense, y []float64, features []string, cfg Config) (*Forest, error) {
	n, p := X.Dims()
	if n == 0 {
		return nil, fmt.Errorf("fit: empty training set")
	}
	if len(y) != n {
		return nil, fmt.Errorf("fit: %d rows but %d targets", n, len(y))
	}
	if len(features) != p {
		return nil, fmt.Errorf("fit: %d columns but %d feature names", p, len(features))
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("fit: tree count must be positive, got %d", cfg.Trees)
	}
	minLeaf := cfg.MinLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}
	mtry := p / 3
	if mtry < 1 {
		mtry = 1
	}

	f := &Forest{
		Features: append([]string(nil), features...),
		Seed:     cfg.Seed,
		Trees:    make([]tree, cfg.Trees),
	}

	fitOne := func(i int) {
		rng := rand.New(rand.NewSource(treeSeed(cfg.Seed, i)))
		sample := make([]int, n)
		for j := range sample {
			sample[j] = rng.Intn(n)
		}
		f.Trees[i] = growTree(X, y, sample, mtry, cfg.MaxDepth, minLeaf, rng)
	}

	if !cfg.Parallel {
		for i := 0; i < cfg.Trees; i++ {
			fitOne(i)
		}
		return f, nil
	}

	workers := runtime.NumCPU()
	if workers > cfg.Trees {
		workers = cfg.Trees
	}
	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fitOne(i)
			}
		}()
	}
	for i := 0; i < cfg.Trees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return f, nil
}

// treeSeed derives a per-tree seed. Splitmix-style spread keeps neighboring
// tree seeds uncorrelated.
func treeSeed(seed int64, i int) int64 {
	z := uint64(seed) + uint64(i+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// Predict evaluates one feature vector: the mean of all tree outputs.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != len(f.Features) {
		return 0, fmt.Errorf("predict: vector has %d features, model expects %d", len(x), len(f.Features))
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// PredictMatrix evaluates every row of X.
func (f *Forest) PredictMatrix(X *mat.Dense) ([]float64, error) {
	n, p := X.Dims()
	if p != len(f.Features) {
		return nil, fmt.Errorf("predict: matrix has %d columns, model expects %d", p, len(f.Features))
	}
	out := make([]float64, n)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		var sum float64
		for t := range f.Trees {
			sum += f.Trees[t].predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}
