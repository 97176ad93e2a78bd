package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

// DefaultArtifactPath is the filesystem convention for the prediction store
// backing file.
const DefaultArtifactPath = "predictions.csv"

// csvHeader is the flat prediction-record layout. Values are written at full
// precision; rounding is a serving-boundary concern. Missing fields stay
// empty, never zero.
var csvHeader = []string{
	"flight_id", "class_code", "flight_number", "origin", "dest", "dep_date",
	"actual_final", "predicted_final", "error",
	"fare_amount", "actual_revenue", "predicted_revenue", "incremental_revenue",
	"load_factor_estimate", "demand_signal", "cabin_name",
}

// WriteCSV persists a completed batch. Callers pass records already sorted by
// (flight_id, class_code), so reruns over unchanged inputs are byte-identical.
func WriteCSV(path string, records []schema.PredictionRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write predictions: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.FlightID),
			r.ClassCode,
			r.FlightNumber,
			r.Origin,
			r.Dest,
			r.DepDate,
			formatFloat(r.ActualFinal),
			formatFloat(r.PredictedFinal),
			formatFloat(r.Error),
			formatPtr(r.FareAmount),
			formatPtr(r.ActualRevenue),
			formatPtr(r.PredictedRevenue),
			formatPtr(r.IncrementalRevenue),
			formatPtr(r.LoadFactorEstimate),
			string(r.DemandSignal),
			r.CabinName,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write predictions: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	return nil
}

// ReadCSV loads a previously written prediction batch.
func ReadCSV(path string) ([]schema.PredictionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read predictions: %s is empty", path)
	}
	if len(rows[0]) != len(csvHeader) {
		return nil, fmt.Errorf("read predictions: %s has %d columns, want %d", path, len(rows[0]), len(csvHeader))
	}

	records := make([]schema.PredictionRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		var r schema.PredictionRecord
		if r.FlightID, err = strconv.Atoi(row[0]); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad flight_id: %w", i+2, err)
		}
		r.ClassCode = row[1]
		r.FlightNumber = row[2]
		r.Origin = row[3]
		r.Dest = row[4]
		r.DepDate = row[5]
		if r.ActualFinal, err = strconv.ParseFloat(row[6], 64); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad actual_final: %w", i+2, err)
		}
		if r.PredictedFinal, err = strconv.ParseFloat(row[7], 64); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad predicted_final: %w", i+2, err)
		}
		if r.Error, err = strconv.ParseFloat(row[8], 64); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad error: %w", i+2, err)
		}
		if r.FareAmount, err = parsePtr(row[9]); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad fare_amount: %w", i+2, err)
		}
		if r.ActualRevenue, err = parsePtr(row[10]); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad actual_revenue: %w", i+2, err)
		}
		if r.PredictedRevenue, err = parsePtr(row[11]); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad predicted_revenue: %w", i+2, err)
		}
		if r.IncrementalRevenue, err = parsePtr(row[12]); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad incremental_revenue: %w", i+2, err)
		}
		if r.LoadFactorEstimate, err = parsePtr(row[13]); err != nil {
			return nil, fmt.Errorf("read predictions row %d: bad load_factor_estimate: %w", i+2, err)
		}
		r.DemandSignal = schema.DemandSignal(row[14])
		r.CabinName = row[15]
		records = append(records, r)
	}
	return records, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parsePtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
