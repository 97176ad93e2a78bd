// Package store exposes a completed batch of prediction records for
// read-only querying: filtered listing, booking-curve lookup and aggregate
// summary. A Store is immutable once built; regeneration swaps in a whole new
// Store out of band, so serving requests never need locks.
package store

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

var (
	// ErrNotFound reports that no prediction record matches the lookup.
	ErrNotFound = errors.New("no matching prediction record")
	// ErrUnavailable reports that the booking snapshot table was never
	// loaded, so curve lookups cannot be served at all.
	ErrUnavailable = errors.New("booking snapshots not loaded")
)

// DefaultLimit bounds list responses when the caller does not set one.
const DefaultLimit = 500

// Store holds one immutable prediction snapshot plus (optionally) the
// pre-pivot booking table that backs curve lookups.
type Store struct {
	records  []schema.PredictionRecord
	bookings []schema.BookingSnapshot
	hasCurve bool
}

// New builds a store over a completed prediction batch. bookings may be nil
// when the snapshot table was unavailable; curve lookups then return
// ErrUnavailable instead of crashing.
func New(records []schema.PredictionRecord, bookings []schema.BookingSnapshot) *Store {
	return &Store{
		records:  records,
		bookings: bookings,
		hasCurve: bookings != nil,
	}
}

// Len returns the number of prediction records.
func (s *Store) Len() int { return len(s.records) }

// Filter selects records by case-insensitive exact match on any set field.
type Filter struct {
	FlightNumber string
	ClassCode    string
	CabinName    string
	Origin       string
	Dest         string
	DemandSignal string
	Limit        int // 0 means DefaultLimit
}

// Query returns matching records, rounded for presentation: currency and
// booking counts to 2 decimal places, ratios to 4. Internal records keep full
// precision; rounding happens only on these returned copies.
func (s *Store) Query(f Filter) []schema.PredictionRecord {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]schema.PredictionRecord, 0)
	for _, r := range s.records {
		if len(out) >= limit {
			break
		}
		if !f.matches(&r) {
			continue
		}
		out = append(out, roundRecord(r))
	}
	return out
}

func (f *Filter) matches(r *schema.PredictionRecord) bool {
	return matchFold(f.FlightNumber, r.FlightNumber) &&
		matchFold(f.ClassCode, r.ClassCode) &&
		matchFold(f.CabinName, r.CabinName) &&
		matchFold(f.Origin, r.Origin) &&
		matchFold(f.Dest, r.Dest) &&
		matchFold(f.DemandSignal, string(r.DemandSignal))
}

func matchFold(want, have string) bool {
	return want == "" || strings.EqualFold(want, have)
}

// CurvePoint is one observation of the booking curve.
type CurvePoint struct {
	DaysBefore         int `json:"days_before"`
	CumulativeBookings int `json:"cumulative_bookings"`
}

// Curve is the booking history for one (flight, class), furthest from
// departure first.
type Curve struct {
	FlightID     int          `json:"flight_id"`
	FlightNumber string       `json:"flight_number"`
	ClassCode    string       `json:"class_code"`
	Points       []CurvePoint `json:"curve"`
}

// CurveFor looks up the prediction record for (flightNumber, classCode) and
// returns its booking curve from the pre-pivot snapshot table. A pair with a
// prediction record but no snapshots yields an empty curve, not an error.
func (s *Store) CurveFor(flightNumber, classCode string) (*Curve, error) {
	if !s.hasCurve {
		return nil, ErrUnavailable
	}

	code := schema.NormalizeClassCode(classCode)
	var match *schema.PredictionRecord
	for i := range s.records {
		if strings.EqualFold(s.records[i].FlightNumber, flightNumber) && s.records[i].ClassCode == code {
			match = &s.records[i]
			break
		}
	}
	if match == nil {
		return nil, ErrNotFound
	}

	points := make([]CurvePoint, 0)
	for _, b := range s.bookings {
		if b.FlightID == match.FlightID && b.ClassCode == code {
			points = append(points, CurvePoint{
				DaysBefore:         b.DaysBefore,
				CumulativeBookings: b.CumulativeBookings,
			})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].DaysBefore > points[j].DaysBefore })

	return &Curve{
		FlightID:     match.FlightID,
		FlightNumber: match.FlightNumber,
		ClassCode:    code,
		Points:       points,
	}, nil
}

// Summary aggregates the whole store.
type Summary struct {
	TotalFlights          int     `json:"total_flights"`
	TotalClasses          int     `json:"total_classes"`
	TotalPredictedRevenue float64 `json:"total_predicted_revenue"`
	TotalActualRevenue    float64 `json:"total_actual_revenue"`
	UnderpricedCount      int     `json:"underpriced_count"`
	OverpricedCount       int     `json:"overpriced_count"`
	AvgLoadFactor         float64 `json:"avg_load_factor"`
}

// Summarize computes the aggregate view. Revenue sums are independent (never
// netted) and rows without a defined load factor are excluded from the mean.
func (s *Store) Summarize() Summary {
	flights := make(map[int]bool)
	classes := make(map[string]bool)
	var predicted, actual float64
	var loadFactors []float64
	var under, over int

	for _, r := range s.records {
		flights[r.FlightID] = true
		classes[r.ClassCode] = true
		if r.PredictedRevenue != nil {
			predicted += *r.PredictedRevenue
		}
		if r.ActualRevenue != nil {
			actual += *r.ActualRevenue
		}
		switch r.DemandSignal {
		case schema.SignalUnderpriced:
			under++
		case schema.SignalOverpriced:
			over++
		}
		if r.LoadFactorEstimate != nil {
			loadFactors = append(loadFactors, *r.LoadFactorEstimate)
		}
	}

	sum := Summary{
		TotalFlights:          len(flights),
		TotalClasses:          len(classes),
		TotalPredictedRevenue: roundCurrency(predicted),
		TotalActualRevenue:    roundCurrency(actual),
		UnderpricedCount:      under,
		OverpricedCount:       over,
	}
	if len(loadFactors) > 0 {
		sum.AvgLoadFactor = roundRatio(stat.Mean(loadFactors, nil))
	}
	return sum
}

// Boundary rounding: 2 decimal places for currency and counts, 4 for ratios.

func roundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundRatio(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

func roundRecord(r schema.PredictionRecord) schema.PredictionRecord {
	r.ActualFinal = roundCurrency(r.ActualFinal)
	r.PredictedFinal = roundCurrency(r.PredictedFinal)
	r.Error = roundCurrency(r.Error)
	r.FareAmount = roundPtr(r.FareAmount, roundCurrency)
	r.ActualRevenue = roundPtr(r.ActualRevenue, roundCurrency)
	r.PredictedRevenue = roundPtr(r.PredictedRevenue, roundCurrency)
	r.IncrementalRevenue = roundPtr(r.IncrementalRevenue, roundCurrency)
	r.LoadFactorEstimate = roundPtr(r.LoadFactorEstimate, roundRatio)
	return r
}

func roundPtr(v *float64, round func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v)
	return &r
}
