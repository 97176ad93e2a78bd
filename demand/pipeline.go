// Package demand orchestrates the batch pipeline: normalize the raw tables,
// build the feature matrix, fit and evaluate the estimator, derive business
// metrics and write the prediction store artifact. One sequential pass; the
// only parallelism is inside the ensemble fit.
package demand

import (
	"fmt"
	"log/slog"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/features"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/ingest"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/metrics"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/model"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/store"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

// Config for one batch run.
type Config struct {
	DataDir    string       // directory with the four input CSVs
	OutputPath string       // prediction store artifact (predictions.csv)
	ModelPath  string       // fitted model artifact
	Model      model.Config // estimator settings
	Logger     *slog.Logger // defaults to slog.Default
}

// Result of a completed batch run.
type Result struct {
	Records []schema.PredictionRecord
	Dataset *schema.Dataset
	MAE     float64
	Rows    int
	Flights int
	Classes int
}

// Run executes the full pipeline. Schema and training errors are fatal and
// abort before anything is written; a finished run fully replaces the
// previous artifacts.
func Run(cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = store.DefaultArtifactPath
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = model.DefaultArtifactPath
	}

	ds, err := ingest.LoadDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	log.Info("tables loaded",
		"bookings", len(ds.Bookings), "fares", len(ds.Fares),
		"flights", len(ds.Flights), "fare_classes", len(ds.FareClasses))

	m, err := features.Build(ds.Bookings, ds.Fares)
	if err != nil {
		return nil, err
	}
	log.Info("feature matrix built", "rows", m.Rows(), "features", len(m.Names))

	trainIdx, testIdx := model.TrainTestSplit(m.Rows(), cfg.Model.TestFraction, cfg.Model.Seed)
	forest, err := model.Fit(model.SubsetRows(m.X, trainIdx), model.SubsetVec(m.Y, trainIdx), m.Names, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("train demand model: %w", err)
	}

	// Held-out MAE is a quality signal only; a worse run is still a run.
	var mae float64
	if len(testIdx) > 0 {
		testPred, err := forest.PredictMatrix(model.SubsetRows(m.X, testIdx))
		if err != nil {
			return nil, fmt.Errorf("evaluate demand model: %w", err)
		}
		mae = model.MAE(testPred, model.SubsetVec(m.Y, testIdx))
	}
	log.Info("model trained", "trees", cfg.Model.Trees, "test_rows", len(testIdx), "mae", mae)

	if err := forest.Save(cfg.ModelPath); err != nil {
		return nil, err
	}

	// Production predictions cover the full matrix, train and test alike.
	predicted, err := forest.PredictMatrix(m.X)
	if err != nil {
		return nil, fmt.Errorf("predict full dataset: %w", err)
	}

	records, err := metrics.Derive(m, predicted, ds.Flights, ds.FareClasses)
	if err != nil {
		return nil, err
	}

	if err := store.WriteCSV(cfg.OutputPath, records); err != nil {
		return nil, err
	}

	res := &Result{
		Records: records,
		Dataset: ds,
		MAE:     mae,
		Rows:    len(records),
	}
	flights := make(map[int]bool)
	classes := make(map[string]bool)
	for _, r := range records {
		flights[r.FlightID] = true
		classes[r.ClassCode] = true
	}
	res.Flights = len(flights)
	res.Classes = len(classes)

	log.Info("predictions written",
		"path", cfg.OutputPath, "rows", res.Rows, "flights", res.Flights, "classes", res.Classes)
	return res, nil
}
