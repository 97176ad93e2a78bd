package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/model"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/store"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

func fptr(v float64) *float64 { return &v }

func testStore(withBookings bool) *store.Store {
	records := []schema.PredictionRecord{
		{
			FlightID: 1, ClassCode: "Y", FlightNumber: "KQ100", Origin: "NBO", Dest: "LHR",
			DepDate: "2025-06-01", ActualFinal: 80, PredictedFinal: 90, Error: -10,
			FareAmount: fptr(100), ActualRevenue: fptr(8000), PredictedRevenue: fptr(9000),
			IncrementalRevenue: fptr(1000), LoadFactorEstimate: fptr(0.45),
			DemandSignal: schema.SignalUnderpriced, CabinName: "Economy",
		},
		{
			FlightID: 2, ClassCode: "J", FlightNumber: "KQ200", Origin: "NBO", Dest: "DXB",
			DepDate: "2025-06-02", ActualFinal: 20, PredictedFinal: 15, Error: 5,
			DemandSignal: schema.SignalOverpriced, CabinName: "Business",
		},
	}

	var bookings []schema.BookingSnapshot
	if withBookings {
		bookings = []schema.BookingSnapshot{
			{FlightID: 1, ClassCode: "Y", DaysBefore: 7, CumulativeBookings: 50},
			{FlightID: 1, ClassCode: "Y", DaysBefore: 30, CumulativeBookings: 10},
		}
	}
	return store.New(records, bookings)
}

func testServer(t *testing.T, st *store.Store, modelPath string) http.Handler {
	t.Helper()
	return NewServer(&Context{Store: st, ModelPath: modelPath}, nil, nil).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndReady(t *testing.T) {
	h := testServer(t, testStore(true), "")

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPredictionsFiltering(t *testing.T) {
	h := testServer(t, testStore(true), "")

	tests := []struct {
		name string
		path string
		want int
	}{
		{"all", "/api/v1/predictions", 2},
		{"by flight number", "/api/v1/predictions?flight_number=kq100", 1},
		{"by class", "/api/v1/predictions?class_code=J", 1},
		{"by signal", "/api/v1/predictions?demand_signal=underpriced", 1},
		{"no match", "/api/v1/predictions?origin=JFK", 0},
		{"limit", "/api/v1/predictions?limit=1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)

			var got []schema.PredictionRecord
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestPredictionsInvalidLimit(t *testing.T) {
	h := testServer(t, testStore(true), "")

	for _, raw := range []string{"abc", "0", "-5"} {
		rec := get(t, h, "/api/v1/predictions?limit="+raw)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", raw)
	}
}

func TestCurveEndpoint(t *testing.T) {
	h := testServer(t, testStore(true), "")

	rec := get(t, h, "/api/v1/curve/KQ100/Y")
	require.Equal(t, http.StatusOK, rec.Code)

	var curve store.Curve
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &curve))
	assert.Equal(t, "KQ100", curve.FlightNumber)
	require.Len(t, curve.Points, 2)
	assert.Equal(t, 30, curve.Points[0].DaysBefore)
}

func TestCurveNotFound(t *testing.T) {
	h := testServer(t, testStore(true), "")
	rec := get(t, h, "/api/v1/curve/KQ999/Y")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurveUnavailableWithoutBookings(t *testing.T) {
	h := testServer(t, testStore(false), "")
	rec := get(t, h, "/api/v1/curve/KQ100/Y")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code,
		"degraded store answers 503, not 404")
}

func TestCurveBadPath(t *testing.T) {
	h := testServer(t, testStore(true), "")
	rec := get(t, h, "/api/v1/curve/KQ100")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	h := testServer(t, testStore(true), "")

	rec := get(t, h, "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var sum store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 2, sum.TotalFlights)
	assert.Equal(t, 2, sum.TotalClasses)
	assert.Equal(t, 9000.0, sum.TotalPredictedRevenue)
	assert.Equal(t, 1, sum.UnderpricedCount)
}

func TestQuoteWithoutModelArtifact(t *testing.T) {
	h := testServer(t, testStore(true), filepath.Join(t.TempDir(), "missing.json"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quote",
		strings.NewReader(`{"fare": 150, "current_bookings": 20}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "run training first")
}

func TestQuoteWithModel(t *testing.T) {
	names := []string{"bookings_7", "bookings_30", "velocity_7_14"}
	X := mat.NewDense(4, 3, []float64{
		10, 5, 5,
		20, 10, 10,
		30, 15, 15,
		40, 20, 20,
	})
	y := []float64{20, 40, 60, 80}

	cfg := model.DefaultConfig()
	cfg.Trees = 10
	f, err := model.Fit(X, y, names, cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "predictor.json")
	require.NoError(t, f.Save(path))

	h := testServer(t, testStore(true), path)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quote",
		strings.NewReader(`{"fare": 150, "current_bookings": 15}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var quote model.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, model.DefaultQuoteDaysOut, quote.DaysOut)
	assert.Greater(t, quote.Demand, 0.0)
	assert.InDelta(t, quote.Demand*150, quote.Revenue, 1e-9)
}

func TestQuoteValidation(t *testing.T) {
	h := testServer(t, testStore(true), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quote",
		strings.NewReader(`{"fare": -10}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quote",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := testServer(t, testStore(true), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predictions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = get(t, h, "/api/v1/quote")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := testServer(t, testStore(true), "")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predictions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
