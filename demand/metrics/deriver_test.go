package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/features"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

func buildMatrix(t *testing.T, bookings []schema.BookingSnapshot, fares []schema.Fare) *features.Matrix {
	t.Helper()
	m, err := features.Build(bookings, fares)
	require.NoError(t, err)
	return m
}

func TestDeriveFullRecord(t *testing.T) {
	m := buildMatrix(t,
		[]schema.BookingSnapshot{
			{FlightID: 1, ClassCode: "Y", DaysBefore: 7, CumulativeBookings: 50},
			{FlightID: 1, ClassCode: "Y", DaysBefore: 0, CumulativeBookings: 80},
		},
		[]schema.Fare{{FlightID: 1, ClassCode: "Y", FareAmount: 100}},
	)
	flights := []schema.Flight{
		{FlightID: 1, FlightNumber: "KQ100", Origin: "NBO", Dest: "LHR", DepDate: "2025-06-01", SeatCapacity: 200},
	}
	classes := []schema.FareClass{{ClassCode: "Y", CabinName: "Economy"}}

	records, err := Derive(m, []float64{90}, flights, classes)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 1, r.FlightID)
	assert.Equal(t, "Y", r.ClassCode)
	assert.Equal(t, "KQ100", r.FlightNumber)
	assert.Equal(t, "NBO", r.Origin)
	assert.Equal(t, "LHR", r.Dest)
	assert.Equal(t, "2025-06-01", r.DepDate)
	assert.Equal(t, "Economy", r.CabinName)

	assert.Equal(t, 80.0, r.ActualFinal)
	assert.Equal(t, 90.0, r.PredictedFinal)
	assert.Equal(t, -10.0, r.Error, "error = actual - predicted")

	require.NotNil(t, r.FareAmount)
	assert.Equal(t, 100.0, *r.FareAmount)
	require.NotNil(t, r.ActualRevenue)
	assert.Equal(t, 8000.0, *r.ActualRevenue)
	require.NotNil(t, r.PredictedRevenue)
	assert.Equal(t, 9000.0, *r.PredictedRevenue)
	require.NotNil(t, r.IncrementalRevenue)
	assert.Equal(t, 1000.0, *r.IncrementalRevenue)

	require.NotNil(t, r.LoadFactorEstimate)
	assert.Equal(t, 0.45, *r.LoadFactorEstimate)
	assert.Equal(t, schema.SignalUnderpriced, r.DemandSignal)
}

func TestDemandSignal(t *testing.T) {
	tests := []struct {
		name      string
		predicted float64
		actual    float64
		want      schema.DemandSignal
	}{
		{"predicted above actual", 90, 80, schema.SignalUnderpriced},
		{"predicted below actual", 70, 80, schema.SignalOverpriced},
		{"tie classifies overpriced", 80, 80, schema.SignalOverpriced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, signalFor(tt.predicted, tt.actual))
		})
	}
}

func TestDeriveLoadFactorClamped(t *testing.T) {
	m := buildMatrix(t,
		[]schema.BookingSnapshot{{FlightID: 1, ClassCode: "Y", DaysBefore: 0, CumulativeBookings: 80}},
		nil,
	)
	flights := []schema.Flight{{FlightID: 1, FlightNumber: "KQ100", SeatCapacity: 50}}

	records, err := Derive(m, []float64{120}, flights, nil)
	require.NoError(t, err)
	require.NotNil(t, records[0].LoadFactorEstimate)
	assert.Equal(t, 1.0, *records[0].LoadFactorEstimate, "clamped even when predicted exceeds capacity")
}

func TestDeriveZeroCapacityLeavesLoadFactorUndefined(t *testing.T) {
	m := buildMatrix(t,
		[]schema.BookingSnapshot{{FlightID: 1, ClassCode: "Y", DaysBefore: 0, CumulativeBookings: 10}},
		nil,
	)
	flights := []schema.Flight{{FlightID: 1, FlightNumber: "KQ100", SeatCapacity: 0}}

	records, err := Derive(m, []float64{5}, flights, nil)
	require.NoError(t, err)
	assert.Nil(t, records[0].LoadFactorEstimate, "zero capacity is missing, not zero and not a crash")
}

func TestDeriveJoinMissesPropagateAsMissing(t *testing.T) {
	m := buildMatrix(t,
		[]schema.BookingSnapshot{{FlightID: 9, ClassCode: "Q", DaysBefore: 0, CumulativeBookings: 10}},
		nil, // no fare for (9, Q)
	)

	records, err := Derive(m, []float64{12}, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1, "join misses never drop rows")

	r := records[0]
	assert.Nil(t, r.FareAmount)
	assert.Nil(t, r.ActualRevenue, "missing fare means missing revenue, not zero")
	assert.Nil(t, r.PredictedRevenue)
	assert.Nil(t, r.IncrementalRevenue)
	assert.Nil(t, r.LoadFactorEstimate)
	assert.Empty(t, r.FlightNumber)
	assert.Empty(t, r.CabinName)
}

func TestDerivePredictionCountMismatch(t *testing.T) {
	m := buildMatrix(t,
		[]schema.BookingSnapshot{{FlightID: 1, ClassCode: "Y", DaysBefore: 0, CumulativeBookings: 10}},
		nil,
	)
	_, err := Derive(m, []float64{1, 2}, nil, nil)
	require.Error(t, err)
}
