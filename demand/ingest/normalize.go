package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

// Input file names expected under the data directory.
const (
	BookingsFile    = "bookings_cumulative.csv"
	FaresFile       = "fares.csv"
	FlightsFile     = "flights.csv"
	FareClassesFile = "fare_classes.csv"
)

// LoadDir reads and normalizes the four input tables from dir.
func LoadDir(dir string) (*schema.Dataset, error) {
	bookings, err := ReadTable(filepath.Join(dir, BookingsFile), "bookings")
	if err != nil {
		return nil, err
	}
	fares, err := ReadTable(filepath.Join(dir, FaresFile), "fares")
	if err != nil {
		return nil, err
	}
	flights, err := ReadTable(filepath.Join(dir, FlightsFile), "flights")
	if err != nil {
		return nil, err
	}
	classes, err := ReadTable(filepath.Join(dir, FareClassesFile), "fare_classes")
	if err != nil {
		return nil, err
	}
	return Normalize(bookings, fares, flights, classes)
}

// LoadBookings reads and normalizes just the booking snapshot table. The
// serving layer uses this for curve lookups without needing the other three
// tables.
func LoadBookings(path string) ([]schema.BookingSnapshot, error) {
	t, err := ReadTable(path, "bookings")
	if err != nil {
		return nil, err
	}
	t.Rename(schema.ColumnRenames)
	if err := t.Require("flight_id", "class_code", "days_before", "cumulative_bookings"); err != nil {
		return nil, err
	}

	return parseBookings(t)
}

func parseBookings(t *Table) ([]schema.BookingSnapshot, error) {
	fid, cc := t.Col("flight_id"), t.Col("class_code")
	db, cb := t.Col("days_before"), t.Col("cumulative_bookings")
	out := make([]schema.BookingSnapshot, 0, len(t.Rows))
	for i, row := range t.Rows {
		rec := schema.BookingSnapshot{ClassCode: schema.NormalizeClassCode(row[cc])}
		var err error
		if rec.FlightID, err = strconv.Atoi(row[fid]); err != nil {
			return nil, rowErr(t, i, "flight_id", err)
		}
		if rec.DaysBefore, err = strconv.Atoi(row[db]); err != nil {
			return nil, rowErr(t, i, "days_before", err)
		}
		if rec.CumulativeBookings, err = strconv.Atoi(row[cb]); err != nil {
			return nil, rowErr(t, i, "cumulative_bookings", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Normalize renames source columns to canonical names, validates the schema,
// types every row and cleans class codes across all tables. A schema problem
// is fatal; a bad cell value is fatal too, with the row number in the error.
func Normalize(bookings, fares, flights, classes *Table) (*schema.Dataset, error) {
	ds := &schema.Dataset{}

	for _, t := range []*Table{bookings, fares, flights, classes} {
		t.Rename(schema.ColumnRenames)
	}

	if err := bookings.Require("flight_id", "class_code", "days_before", "cumulative_bookings"); err != nil {
		return nil, err
	}
	var err error
	if ds.Bookings, err = parseBookings(bookings); err != nil {
		return nil, err
	}

	if err := fares.Require("flight_id", "class_code", "fare_amount"); err != nil {
		return nil, err
	}
	fid, cc := fares.Col("flight_id"), fares.Col("class_code")
	fa := fares.Col("fare_amount")
	for i, row := range fares.Rows {
		rec := schema.Fare{ClassCode: schema.NormalizeClassCode(row[cc])}
		var err error
		if rec.FlightID, err = strconv.Atoi(row[fid]); err != nil {
			return nil, rowErr(fares, i, "flight_id", err)
		}
		if rec.FareAmount, err = strconv.ParseFloat(row[fa], 64); err != nil {
			return nil, rowErr(fares, i, "fare_amount", err)
		}
		ds.Fares = append(ds.Fares, rec)
	}

	if err := flights.Require("flight_id", "flight_number", "origin", "dest", "dep_date", "seat_capacity"); err != nil {
		return nil, err
	}
	fid = flights.Col("flight_id")
	fn, or, de := flights.Col("flight_number"), flights.Col("origin"), flights.Col("dest")
	dd, sc := flights.Col("dep_date"), flights.Col("seat_capacity")
	for i, row := range flights.Rows {
		rec := schema.Flight{
			FlightNumber: row[fn],
			Origin:       row[or],
			Dest:         row[de],
			DepDate:      row[dd],
		}
		var err error
		if rec.FlightID, err = strconv.Atoi(row[fid]); err != nil {
			return nil, rowErr(flights, i, "flight_id", err)
		}
		if rec.SeatCapacity, err = strconv.Atoi(row[sc]); err != nil {
			return nil, rowErr(flights, i, "seat_capacity", err)
		}
		ds.Flights = append(ds.Flights, rec)
	}

	if err := classes.Require("class_code", "cabin_name"); err != nil {
		return nil, err
	}
	cc = classes.Col("class_code")
	cn := classes.Col("cabin_name")
	for _, row := range classes.Rows {
		ds.FareClasses = append(ds.FareClasses, schema.FareClass{
			ClassCode: schema.NormalizeClassCode(row[cc]),
			CabinName: row[cn],
		})
	}

	return ds, nil
}

func rowErr(t *Table, row int, col string, err error) error {
	// +2: header row plus 1-based numbering, matches what an editor shows.
	return fmt.Errorf("%s table row %d: bad %s: %w", t.Name, row+2, col, err)
}
