// Package metrics turns model output into prediction records: error,
// revenue, load factor and the demand signal, with flight and cabin metadata
// joined in.
package metrics

import (
	"fmt"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/features"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

// Derive computes one PredictionRecord per feature row, in matrix row order.
// Metadata joins are many-to-one lookups: a miss leaves the affected fields
// absent rather than dropping the row or defaulting to zero. A missing fare
// propagates as missing revenue; a missing or non-positive seat capacity
// leaves the load factor undefined.
func Derive(m *features.Matrix, predicted []float64, flights []schema.Flight, classes []schema.FareClass) ([]schema.PredictionRecord, error) {
	if len(predicted) != m.Rows() {
		return nil, fmt.Errorf("derive metrics: %d predictions for %d feature rows", len(predicted), m.Rows())
	}

	flightByID := make(map[int]schema.Flight, len(flights))
	for _, f := range flights {
		flightByID[f.FlightID] = f
	}
	cabinByClass := make(map[string]string, len(classes))
	for _, c := range classes {
		cabinByClass[c.ClassCode] = c.CabinName
	}

	records := make([]schema.PredictionRecord, m.Rows())
	for i, key := range m.Keys {
		actual := m.Y[i]
		pred := predicted[i]

		rec := schema.PredictionRecord{
			FlightID:       key.FlightID,
			ClassCode:      key.ClassCode,
			ActualFinal:    actual,
			PredictedFinal: pred,
			// Positive error means actual exceeded the prediction.
			Error:        actual - pred,
			DemandSignal: signalFor(pred, actual),
			CabinName:    cabinByClass[key.ClassCode],
		}

		if fare := m.Fare[i]; fare != nil {
			rec.FareAmount = ptr(*fare)
			rec.ActualRevenue = ptr(actual * *fare)
			rec.PredictedRevenue = ptr(pred * *fare)
			rec.IncrementalRevenue = ptr(*rec.PredictedRevenue - *rec.ActualRevenue)
		}

		if fl, ok := flightByID[key.FlightID]; ok {
			rec.FlightNumber = fl.FlightNumber
			rec.Origin = fl.Origin
			rec.Dest = fl.Dest
			rec.DepDate = fl.DepDate
			if fl.SeatCapacity > 0 {
				rec.LoadFactorEstimate = ptr(clamp01(pred / float64(fl.SeatCapacity)))
			}
		}

		records[i] = rec
	}
	return records, nil
}

// signalFor classifies demand: Underpriced iff the model expected more
// bookings than materialized. Ties are Overpriced.
func signalFor(predicted, actual float64) schema.DemandSignal {
	if predicted > actual {
		return schema.SignalUnderpriced
	}
	return schema.SignalOverpriced
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ptr(v float64) *float64 { return &v }
