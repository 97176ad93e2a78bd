package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultQuoteDaysOut is the fixed days-to-departure assumed for ad-hoc
// quotes.
const DefaultQuoteDaysOut = 30

// QuoteEstimator answers single ad-hoc demand queries. It is intentionally
// NOT the batch inference path: the batch pipeline predicts from the full
// multi-bucket feature matrix, while a quote is computed from a minimal
// vector (the current booking level placed in the bucket nearest the default
// days-out, everything else zero) against a model artifact reloaded fresh on
// every call. The two paths use different feature vectors and must stay
// separately named; unifying them silently mismatches features.
type QuoteEstimator struct {
	Path    string // model artifact path
	DaysOut int    // defaults to DefaultQuoteDaysOut when 0
}

// Quote is an ad-hoc demand and revenue estimate.
type Quote struct {
	Demand  float64 `json:"demand"`
	Revenue float64 `json:"revenue"`
	DaysOut int     `json:"days_out"`
}

// Estimate reloads the artifact and quotes expected final demand and revenue
// for a fare, given the bookings observed so far.
func (q *QuoteEstimator) Estimate(fare, currentBookings float64) (*Quote, error) {
	f, err := Load(q.Path)
	if err != nil {
		return nil, err
	}

	daysOut := q.DaysOut
	if daysOut <= 0 {
		daysOut = DefaultQuoteDaysOut
	}

	x := make([]float64, len(f.Features))
	col, err := nearestBucket(f.Features, daysOut)
	if err != nil {
		return nil, err
	}
	x[col] = currentBookings

	demand, err := f.Predict(x)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Demand:  demand,
		Revenue: demand * fare,
		DaysOut: daysOut,
	}, nil
}

// nearestBucket finds the bookings_<N> feature closest to the wanted
// days-out. Ties resolve to the smaller N.
func nearestBucket(features []string, daysOut int) (int, error) {
	best, bestDist := -1, 0
	for i, name := range features {
		n, ok := strings.CutPrefix(name, "bookings_")
		if !ok {
			continue
		}
		day, err := strconv.Atoi(n)
		if err != nil {
			continue
		}
		dist := day - daysOut
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("quote: model has no booking bucket features")
	}
	return best, nil
}
