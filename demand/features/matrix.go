// Package features pivots normalized booking snapshots into the fixed-width
// feature matrix the demand estimator trains on: one row per
// (flight, fare class), one column per days-before-departure bucket, plus a
// derived booking-velocity column.
package features

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

// Velocity window: bookings gained between 14 and 7 days out.
const (
	velocityNearDay = 7
	velocityFarDay  = 14

	// VelocityName is the derived feature column, always last in the matrix.
	VelocityName = "velocity_7_14"
)

// cell accumulates duplicate observations for one (flight, class, day) so
// they can be averaged, matching how merged class codes collapse.
type cell struct {
	sum float64
	n   int
}

func (c *cell) mean() float64 { return c.sum / float64(c.n) }

// Key identifies one feature row.
type Key struct {
	FlightID  int
	ClassCode string
}

// Matrix is the pivoted feature table, row-aligned across all fields. Rows
// are sorted by (flight_id, class_code) and columns by ascending days_before,
// so identical inputs always produce an identical matrix.
type Matrix struct {
	Keys  []Key
	Days  []int    // observed days_before values, ascending, excluding 0
	Names []string // bookings_<N> per entry in Days, then velocity_7_14

	X *mat.Dense // len(Keys) x len(Names)
	Y []float64  // actual final bookings (the day-0 snapshot, 0 if absent)

	// Fare per row, left-joined by (flight_id, class_code). nil when no fare
	// matched; preserved through to revenue derivation, never zero-filled.
	Fare []*float64
}

// FeatureName returns the column name for a days_before bucket.
func FeatureName(day int) string {
	return fmt.Sprintf("bookings_%d", day)
}

// Build pivots bookings into one row per (flight, class) and left-joins fares.
// Cells with no observed snapshot are filled with 0 after pivoting; a true
// zero count and a missing snapshot are indistinguishable from here on, which
// is the accepted approximation. Duplicate observations for the same
// (flight, class, day) — e.g. class codes that merged during normalization —
// are averaged.
func Build(bookings []schema.BookingSnapshot, fares []schema.Fare) (*Matrix, error) {
	if len(bookings) == 0 {
		return nil, fmt.Errorf("build feature matrix: no booking snapshots")
	}

	pivot := make(map[Key]map[int]*cell)
	daySet := make(map[int]bool)

	for _, b := range bookings {
		if b.DaysBefore < 0 {
			return nil, fmt.Errorf("build feature matrix: negative days_before %d for flight %d class %s",
				b.DaysBefore, b.FlightID, b.ClassCode)
		}
		k := Key{FlightID: b.FlightID, ClassCode: b.ClassCode}
		row, ok := pivot[k]
		if !ok {
			row = make(map[int]*cell)
			pivot[k] = row
		}
		c, ok := row[b.DaysBefore]
		if !ok {
			c = &cell{}
			row[b.DaysBefore] = c
		}
		c.sum += float64(b.CumulativeBookings)
		c.n++
		daySet[b.DaysBefore] = true
	}

	keys := make([]Key, 0, len(pivot))
	for k := range pivot {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].FlightID != keys[j].FlightID {
			return keys[i].FlightID < keys[j].FlightID
		}
		return keys[i].ClassCode < keys[j].ClassCode
	})

	days := make([]int, 0, len(daySet))
	for d := range daySet {
		if d != 0 {
			days = append(days, d)
		}
	}
	sort.Ints(days)

	names := make([]string, 0, len(days)+1)
	dayCol := make(map[int]int, len(days))
	for i, d := range days {
		names = append(names, FeatureName(d))
		dayCol[d] = i
	}
	velCol := len(days)
	names = append(names, VelocityName)

	fareByKey := make(map[Key]float64, len(fares))
	for _, f := range fares {
		fareByKey[Key{FlightID: f.FlightID, ClassCode: f.ClassCode}] = f.FareAmount
	}

	m := &Matrix{
		Keys:  keys,
		Days:  days,
		Names: names,
		X:     mat.NewDense(len(keys), len(names), nil),
		Y:     make([]float64, len(keys)),
		Fare:  make([]*float64, len(keys)),
	}

	for i, k := range keys {
		row := pivot[k]
		for d, c := range row {
			if d == 0 {
				m.Y[i] = c.mean()
				continue
			}
			m.X.Set(i, dayCol[d], c.mean())
		}
		// Both sides default to 0 when their bucket was never observed.
		m.X.Set(i, velCol, bucketValue(row, velocityNearDay)-bucketValue(row, velocityFarDay))

		if amt, ok := fareByKey[k]; ok {
			v := amt
			m.Fare[i] = &v
		}
	}

	return m, nil
}

func bucketValue(row map[int]*cell, day int) float64 {
	if c, ok := row[day]; ok {
		return c.mean()
	}
	return 0
}

// Rows returns the number of feature rows.
func (m *Matrix) Rows() int { return len(m.Keys) }

// Row copies out one feature vector.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.X)
}
