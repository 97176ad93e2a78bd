package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

func snap(flight int, class string, day, bookings int) schema.BookingSnapshot {
	return schema.BookingSnapshot{FlightID: flight, ClassCode: class, DaysBefore: day, CumulativeBookings: bookings}
}

func TestBuildPivotsOneRowPerFlightClass(t *testing.T) {
	bookings := []schema.BookingSnapshot{
		snap(1, "Y", 30, 10),
		snap(1, "Y", 7, 50),
		snap(1, "Y", 0, 80),
		snap(2, "J", 14, 5),
		snap(1, "J", 7, 12),
	}
	fares := []schema.Fare{
		{FlightID: 1, ClassCode: "Y", FareAmount: 120},
	}

	m, err := Build(bookings, fares)
	require.NoError(t, err)

	require.Equal(t, []Key{{1, "J"}, {1, "Y"}, {2, "J"}}, m.Keys, "rows sorted by (flight_id, class_code)")
	assert.Equal(t, []int{7, 14, 30}, m.Days, "day 0 excluded, ascending")
	assert.Equal(t, []string{"bookings_7", "bookings_14", "bookings_30", "velocity_7_14"}, m.Names)

	// Row for (1, Y): observed 7 and 30, day 14 zero-filled.
	assert.Equal(t, []float64{50, 0, 10, 50}, m.Row(1))
	assert.Equal(t, 80.0, m.Y[1], "actual_final from the day-0 snapshot")

	// Row for (2, J): only day 14 observed, everything else zero-filled.
	assert.Equal(t, []float64{0, 5, 0, -5}, m.Row(2))
	assert.Equal(t, 0.0, m.Y[2], "no day-0 snapshot defaults to 0")

	require.NotNil(t, m.Fare[1])
	assert.Equal(t, 120.0, *m.Fare[1])
	assert.Nil(t, m.Fare[0], "unmatched fare stays missing, not zero")
	assert.Nil(t, m.Fare[2])
}

func TestVelocity(t *testing.T) {
	tests := []struct {
		name     string
		bookings []schema.BookingSnapshot
		want     float64
	}{
		{
			"both buckets observed",
			[]schema.BookingSnapshot{snap(1, "Y", 7, 50), snap(1, "Y", 14, 20)},
			30,
		},
		{
			"far bucket missing",
			[]schema.BookingSnapshot{snap(1, "Y", 7, 50)},
			50,
		},
		{
			"near bucket missing",
			[]schema.BookingSnapshot{snap(1, "Y", 14, 20)},
			-20,
		},
		{
			"both missing",
			[]schema.BookingSnapshot{snap(1, "Y", 3, 9)},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Build(tt.bookings, nil)
			require.NoError(t, err)
			vel := m.Row(0)[len(m.Names)-1]
			assert.Equal(t, tt.want, vel)
		})
	}
}

func TestBuildMergedClassCodesProduceOneRow(t *testing.T) {
	// Normalization upstream already collapsed "y" and "Y " into "Y"; two
	// observations land on the same (flight, class, day) cell and average.
	bookings := []schema.BookingSnapshot{
		snap(1, "Y", 7, 40),
		snap(1, "Y", 7, 60),
		snap(1, "Y", 0, 80),
	}
	m, err := Build(bookings, nil)
	require.NoError(t, err)

	require.Len(t, m.Keys, 1, "one feature row, not two")
	assert.Equal(t, 50.0, m.Row(0)[0], "duplicate cells averaged")
}

func TestBuildRejectsNegativeDays(t *testing.T) {
	_, err := Build([]schema.BookingSnapshot{snap(1, "Y", -1, 10)}, nil)
	require.Error(t, err)
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	_, err := Build(nil, nil)
	require.Error(t, err)
}

func TestBuildDeterministicOrdering(t *testing.T) {
	bookings := []schema.BookingSnapshot{
		snap(3, "Y", 7, 1), snap(1, "C", 14, 2), snap(2, "Y", 30, 3),
		snap(1, "A", 7, 4), snap(2, "A", 3, 5),
	}
	a, err := Build(bookings, nil)
	require.NoError(t, err)
	b, err := Build(bookings, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Keys, b.Keys)
	assert.Equal(t, a.Names, b.Names)
	assert.Equal(t, a.X.RawMatrix().Data, b.X.RawMatrix().Data)
}
