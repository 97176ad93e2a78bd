// Package schema defines the canonical record types shared by the batch
// pipeline and the serving layer, plus the column-name normalization applied
// once at ingestion.
package schema

import "strings"

// BookingSnapshot is one cumulative booking observation for a
// (flight, fare class) pair at a given number of days before departure.
// DaysBefore == 0 is the terminal snapshot: the actual final count.
type BookingSnapshot struct {
	FlightID           int    `json:"flight_id"`
	ClassCode          string `json:"class_code"`
	DaysBefore         int    `json:"days_before"`
	CumulativeBookings int    `json:"cumulative_bookings"`
}

// Fare is the published fare for a (flight, fare class) pair.
type Fare struct {
	FlightID   int     `json:"flight_id"`
	ClassCode  string  `json:"class_code"`
	FareAmount float64 `json:"fare_amount"`
}

// Flight carries the per-flight metadata joined into prediction records.
type Flight struct {
	FlightID     int    `json:"flight_id"`
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin"`
	Dest         string `json:"dest"`
	DepDate      string `json:"dep_date"`
	SeatCapacity int    `json:"seat_capacity"`
}

// FareClass maps a booking class code to its cabin name.
type FareClass struct {
	ClassCode string `json:"class_code"`
	CabinName string `json:"cabin_name"`
}

// Dataset holds the four normalized input tables for one batch run.
// Class codes are already trimmed and upper-cased in every table, so all
// downstream joins are exact string equality.
type Dataset struct {
	Bookings    []BookingSnapshot
	Fares       []Fare
	Flights     []Flight
	FareClasses []FareClass
}

// DemandSignal classifies a fare class by comparing predicted against actual
// final bookings. Ties classify as Overpriced.
type DemandSignal string

const (
	SignalUnderpriced DemandSignal = "Underpriced"
	SignalOverpriced  DemandSignal = "Overpriced"
)

// PredictionRecord is one row of the prediction store: the model output for
// a (flight, fare class) pair together with the derived business metrics.
// Pointer fields are absent when the corresponding join missed (no fare, no
// flight metadata, zero capacity); a missing value is never reported as zero.
type PredictionRecord struct {
	FlightID           int          `json:"flight_id"`
	ClassCode          string       `json:"class_code"`
	FlightNumber       string       `json:"flight_number"`
	Origin             string       `json:"origin"`
	Dest               string       `json:"dest"`
	DepDate            string       `json:"dep_date"`
	ActualFinal        float64      `json:"actual_final"`
	PredictedFinal     float64      `json:"predicted_final"`
	Error              float64      `json:"error"`
	FareAmount         *float64     `json:"fare_amount"`
	ActualRevenue      *float64     `json:"actual_revenue"`
	PredictedRevenue   *float64     `json:"predicted_revenue"`
	IncrementalRevenue *float64     `json:"incremental_revenue"`
	LoadFactorEstimate *float64     `json:"load_factor_estimate"`
	DemandSignal       DemandSignal `json:"demand_signal"`
	CabinName          string       `json:"cabin_name"`
}

// ColumnRenames maps source-specific column names to canonical ones. The
// mapping is applied exactly once, at ingestion, so no consumer ever sees the
// source spellings.
var ColumnRenames = map[string]string{
	"code":     "class_code",
	"cabin":    "cabin_name",
	"capacity": "seat_capacity",
}

// NormalizeClassCode trims and upper-cases a class code. Every table is run
// through this before any join; "y" and "Y " are the same class.
func NormalizeClassCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
