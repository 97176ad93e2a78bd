// airrev - Airline demand & revenue analytics
//
// Usage:
//   airrev train --data data/ [--archive]
//   airrev serve --predictions predictions.csv --data data/
//   airrev runs [--limit 20]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/api"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/db/clickhouse"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/model"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/demand/store"
	"github.com/JohnKimaiyo/Airline-Revenue-Analytics-App/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "airrev",
		Usage:   "Airline booking demand and revenue analytics",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "airrev",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
		},

		Commands: []*cli.Command{
			trainCommand(),
			serveCommand(),
			runsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Run the batch pipeline: normalize, train, predict, write the prediction store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Value: "data", Usage: "Directory with the four input CSV tables"},
			&cli.StringFlag{Name: "out", Value: store.DefaultArtifactPath, Usage: "Prediction store output path"},
			&cli.StringFlag{Name: "model", Value: model.DefaultArtifactPath, Usage: "Model artifact output path"},
			&cli.IntFlag{Name: "trees", Value: 150, Usage: "Number of trees in the ensemble"},
			&cli.Int64Flag{Name: "seed", Value: 42, Usage: "Random seed (fixed for reproducible runs)"},
			&cli.Float64Flag{Name: "test-fraction", Value: 0.2, Usage: "Held-out share for the MAE report"},
			&cli.BoolFlag{Name: "sequential", Usage: "Disable parallel tree construction"},
			&cli.BoolFlag{Name: "archive", Usage: "Also archive the run to ClickHouse"},
		},
		Action: func(c *cli.Context) error {
			log := platform.InitLogger()

			cfg := model.DefaultConfig()
			cfg.Trees = c.Int("trees")
			cfg.Seed = c.Int64("seed")
			cfg.TestFraction = c.Float64("test-fraction")
			cfg.Parallel = !c.Bool("sequential")

			result, err := demand.Run(demand.Config{
				DataDir:    c.String("data"),
				OutputPath: c.String("out"),
				ModelPath:  c.String("model"),
				Model:      cfg,
				Logger:     log,
			})
			if err != nil {
				return err
			}

			if c.Bool("archive") {
				archive, err := openArchive(c)
				if err != nil {
					return err
				}
				defer archive.Close()

				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()
				if err := archive.EnsureTables(ctx); err != nil {
					return err
				}
				run := &clickhouse.Run{
					Rows:    result.Rows,
					Flights: result.Flights,
					Classes: result.Classes,
					MAE:     result.MAE,
					Source:  c.String("data"),
				}
				if err := archive.SaveRun(ctx, run, result.Records); err != nil {
					return err
				}
				log.Info("run archived", "run_id", run.ID)
			}

			fmt.Printf("Rows: %d  |  Flights: %d  |  Classes: %d  |  MAE: %.4f\n",
				result.Rows, result.Flights, result.Classes, result.MAE)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the prediction store over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "predictions", Value: store.DefaultArtifactPath, Usage: "Prediction store artifact"},
			&cli.StringFlag{Name: "data", Value: "data", Usage: "Data directory (booking curves)"},
			&cli.StringFlag{Name: "model", Value: model.DefaultArtifactPath, Usage: "Model artifact for ad-hoc quotes"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP port", EnvVars: []string{"PORT"}},
		},
		Action: func(c *cli.Context) error {
			log := platform.InitLogger()

			st, err := demand.LoadStore(c.String("predictions"), c.String("data"), log)
			if err != nil {
				return err
			}

			// A missing model artifact is a degraded start, not a refusal:
			// predictions stay queryable, quotes return 503 until trained.
			if _, err := model.Load(c.String("model")); err != nil {
				log.Warn("model artifact not loadable, quote endpoint degraded", "error", err)
			}

			cfg := api.DefaultConfig()
			cfg.Port = c.Int("port")
			server := api.NewServer(&api.Context{
				Store:     st,
				ModelPath: c.String("model"),
			}, cfg, log)
			return server.StartWithGracefulShutdown()
		},
	}
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List archived pipeline runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum runs to list"},
		},
		Action: func(c *cli.Context) error {
			archive, err := openArchive(c)
			if err != nil {
				return err
			}
			defer archive.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			runs, err := archive.ListRuns(ctx, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  rows=%d flights=%d classes=%d mae=%.4f source=%s\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), r.Rows, r.Flights, r.Classes, r.MAE, r.Source)
			}
			return nil
		},
	}
}

func openArchive(c *cli.Context) (*clickhouse.Archive, error) {
	return clickhouse.NewArchive(&clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	})
}
