// Package clickhouse archives completed pipeline runs in ClickHouse.
// Columnar storage suits the output shape: a small run header plus thousands
// of flat prediction rows per batch, appended and never mutated. Archiving is
// an optional sink on the training path; the serving layer reads only the
// in-process store.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/schema"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "airrev",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Run is the header row for one archived batch.
type Run struct {
	ID        uuid.UUID `ch:"id"`
	CreatedAt time.Time `ch:"created_at"`
	Rows      int       `ch:"rows"`
	Flights   int       `ch:"flights"`
	Classes   int       `ch:"classes"`
	MAE       float64   `ch:"mae"`
	Source    string    `ch:"source"`
}

// Archive is the ClickHouse-backed run archive.
type Archive struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewArchive opens a connection to ClickHouse.
func NewArchive(cfg *Config) (*Archive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to ClickHouse: %w", err)
	}
	return &Archive{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (a *Archive) Ping(ctx context.Context) error {
	return a.conn.Ping(ctx)
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// EnsureTables creates the archive tables when they do not exist yet.
func (a *Archive) EnsureTables(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS demand_runs (
			id UUID,
			created_at DateTime64(3),
			rows UInt32,
			flights UInt32,
			classes UInt32,
			mae Float64,
			source String
		) ENGINE = MergeTree() ORDER BY created_at`,
		`CREATE TABLE IF NOT EXISTS demand_predictions (
			run_id UUID,
			flight_id Int64,
			class_code String,
			flight_number String,
			origin String,
			dest String,
			dep_date String,
			actual_final Float64,
			predicted_final Float64,
			error Float64,
			fare_amount Nullable(Float64),
			actual_revenue Nullable(Float64),
			predicted_revenue Nullable(Float64),
			incremental_revenue Nullable(Float64),
			load_factor_estimate Nullable(Float64),
			demand_signal String,
			cabin_name String
		) ENGINE = MergeTree() ORDER BY (run_id, flight_id, class_code)`,
	}
	for _, q := range ddl {
		if err := a.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create archive tables: %w", err)
		}
	}
	return nil
}

// SaveRun archives one completed batch: the run header plus every prediction
// record, bulk-inserted.
func (a *Archive) SaveRun(ctx context.Context, run *Run, records []schema.PredictionRecord) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	if err := a.conn.Exec(ctx,
		`INSERT INTO demand_runs (id, created_at, rows, flights, classes, mae, source) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, uint32(run.Rows), uint32(run.Flights), uint32(run.Classes), run.MAE, run.Source,
	); err != nil {
		return fmt.Errorf("insert run header: %w", err)
	}

	batch, err := a.conn.PrepareBatch(ctx, `INSERT INTO demand_predictions (
		run_id, flight_id, class_code, flight_number, origin, dest, dep_date,
		actual_final, predicted_final, error,
		fare_amount, actual_revenue, predicted_revenue, incremental_revenue,
		load_factor_estimate, demand_signal, cabin_name
	)`)
	if err != nil {
		return fmt.Errorf("prepare prediction batch: %w", err)
	}
	for _, r := range records {
		if err := batch.Append(
			run.ID, int64(r.FlightID), r.ClassCode, r.FlightNumber, r.Origin, r.Dest, r.DepDate,
			r.ActualFinal, r.PredictedFinal, r.Error,
			r.FareAmount, r.ActualRevenue, r.PredictedRevenue, r.IncrementalRevenue,
			r.LoadFactorEstimate, string(r.DemandSignal), r.CabinName,
		); err != nil {
			return fmt.Errorf("append prediction row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send prediction batch: %w", err)
	}
	return nil
}

// ListRuns returns archived run headers, newest first.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.conn.Query(ctx,
		`SELECT id, created_at, rows, flights, classes, mae, source
		 FROM demand_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var nRows, nFlights, nClasses uint32
		if err := rows.Scan(&r.ID, &r.CreatedAt, &nRows, &nFlights, &nClasses, &r.MAE, &r.Source); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Rows, r.Flights, r.Classes = int(nRows), int(nFlights), int(nClasses)
		runs = append(runs, &r)
	}
	return runs, nil
}
