package demand

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/ingest"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/store"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

// LoadStore builds the serving-time prediction store from a pre-generated
// predictions artifact plus, when present, the raw bookings table for curve
// lookups. A missing bookings file is a degraded mode, not a startup error:
// curve lookups report service-unavailable while everything else works.
func LoadStore(predictionsPath, dataDir string, log *slog.Logger) (*store.Store, error) {
	if log == nil {
		log = slog.Default()
	}

	records, err := store.ReadCSV(predictionsPath)
	if err != nil {
		return nil, err
	}

	var bookings []schema.BookingSnapshot
	bookingsPath := filepath.Join(dataDir, ingest.BookingsFile)
	if _, statErr := os.Stat(bookingsPath); statErr == nil {
		if bookings, err = ingest.LoadBookings(bookingsPath); err != nil {
			return nil, err
		}
		log.Info("booking snapshots loaded", "rows", len(bookings))
	} else {
		log.Warn("booking snapshots missing, curve lookups disabled", "path", bookingsPath)
	}

	log.Info("prediction store loaded", "path", predictionsPath, "rows", len(records))
	return store.New(records, bookings), nil
}
