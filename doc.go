// Package gridhouse runs leakage-safe regression experiments over
// tabular housing records.
//
// The library prepares a raw table for modeling without ever letting
// validation or test rows influence the fitted preprocessing, then
// sweeps hyperparameter grids over regression model families and
// records every attempt.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/YuminosukeSato/gridhouse"
//	    "github.com/YuminosukeSato/gridhouse/experiment"
//	    "github.com/YuminosukeSato/gridhouse/sweep"
//	)
//
//	func main() {
//	    cfg := sweep.DefaultConfig()
//	    cfg.Target = "sale_price"
//	    cfg.Grids = map[string]sweep.Grid{
//	        "ridge": {"alpha": {0.1, 1.0, 10.0}},
//	    }
//
//	    prepared, err := gridhouse.Prepare(trainTable, testTable, cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    recorder := experiment.NewMemoryRecorder()
//	    engine, err := sweep.NewEngine(cfg, prepared.SweepData(), recorder)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    summary, err := engine.Run(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = summary
//	}
//
// # Packages
//
//   - dataset: typed tables, schemas, deterministic splitting, fingerprints
//   - preprocessing: KNN imputation and one-hot encoding fitted on train only
//   - regression: ridge and k-nearest-neighbor model families
//   - metrics: RMSE, MAPE, R² evaluation
//   - sweep: deterministic hyperparameter grid sweeps
//   - experiment: append-only run recording (in-memory and SQLite)
//   - core/model: shared estimator interfaces and persistence helpers
//
// # Leakage discipline
//
// Imputer and encoder are immutable value objects constructed only
// from the training split. Transform never mutates its receiver or its
// input, so the fitted preprocessing applied to validation and test
// data is byte-for-byte the one fitted on train.
package gridhouse
