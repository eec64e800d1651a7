// Package pipeline runs the batch job end to end: prepare, load, encode,
// aggregate, train and persist.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/supermart-cli/internal/analytics"
	"github.com/KaramelBytes/supermart-cli/internal/artifacts"
	"github.com/KaramelBytes/supermart-cli/internal/dataset"
	"github.com/KaramelBytes/supermart-cli/internal/features"
	"github.com/KaramelBytes/supermart-cli/internal/logging"
	"github.com/KaramelBytes/supermart-cli/internal/model"
)

// Options configure one run.
type Options struct {
	Layout artifacts.Layout
	// ShopFile is the raw export converted into the orders CSV before loading.
	// Empty skips preparation.
	ShopFile string
	Train    model.TrainOptions
	Logger   *slog.Logger
}

// FeatureImportance is the normalised gain of one feature.
type FeatureImportance struct {
	Feature string
	Gain    float64
}

// Summary reports what a run did.
type Summary struct {
	RunID            string
	Prepared         bool
	Input            string
	RawRows          int
	Rows             int
	DroppedNull      int
	DroppedDuplicate int
	InvalidDates     int
	Metrics          model.Metrics
	BestCVR2         float64
	Importance       []FeatureImportance
	Analytics        *analytics.Document
	Manifest         *artifacts.Manifest
	Duration         time.Duration
}

// Run executes the pipeline. A missing orders CSV fails with
// dataset.ErrMissingInput before any training starts.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID)
	layout := opts.Layout
	sum := &Summary{RunID: runID, Input: layout.InputPath()}

	if opts.ShopFile != "" {
		shop := opts.ShopFile
		if !filepath.IsAbs(shop) {
			shop = filepath.Join(layout.Root, shop)
		}
		ok, err := dataset.Prepare(shop, layout.InputPath())
		if err != nil {
			return nil, fmt.Errorf("prepare: %w", err)
		}
		sum.Prepared = ok
		if ok {
			log.Info("prepared orders from shop export", "shop", layout.Rel(shop), "output", layout.Rel(sum.Input))
		} else {
			log.Debug("no shop export found, using existing orders", "shop", layout.Rel(shop))
		}
	}

	ds, err := dataset.Load(sum.Input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	sum.RawRows = ds.RawRows
	sum.Rows = ds.Len()
	sum.DroppedNull = ds.DroppedNull
	sum.DroppedDuplicate = ds.DroppedDuplicate
	sum.InvalidDates = ds.InvalidDates
	log.Info("loaded orders",
		"rows", ds.Len(),
		"raw_rows", ds.RawRows,
		"dropped_null", ds.DroppedNull,
		"dropped_duplicate", ds.DroppedDuplicate,
		"invalid_dates", ds.InvalidDates)
	if ds.InvalidDates > 0 {
		log.Warn("orders with unparseable dates excluded from monthly sales", "count", ds.InvalidDates)
	}

	enc := features.Fit(ds)
	for _, col := range features.CategoricalColumns {
		log.Debug("encoded column", "column", col, "classes", len(enc.Encoders[col].Classes))
	}

	doc := analytics.Aggregate(ds)
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	sum.Analytics = doc
	log.Info("aggregated analytics", "total_sales", doc.TotalSales, "months", len(doc.MonthlySales), "cities", doc.UniqueCities)

	trainOpts := opts.Train
	trainOpts.Logger = log
	res, err := model.Train(ctx, enc, trainOpts)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	sum.Metrics = res.Metrics
	sum.BestCVR2 = res.CVScores[res.BestIndex].Mean
	sum.Importance = rankImportance(res.Model.Importance())
	log.Info("trained models",
		"lr_r2", res.Metrics.LRR2,
		"xgb_r2", res.Metrics.XGBR2,
		"best_params", res.Metrics.BestParams.String())

	m, err := artifacts.Write(layout, artifacts.Bundle{
		RunID:     runID,
		Input:     sum.Input,
		Rows:      ds.Len(),
		Result:    res,
		Encoders:  enc.Encoders,
		Analytics: doc,
	})
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	sum.Manifest = m
	sum.Duration = time.Since(start)
	log.Info("pipeline finished", "files", len(m.Files), "duration", sum.Duration.Round(time.Millisecond))
	return sum, nil
}

func rankImportance(gain []float64) []FeatureImportance {
	out := make([]FeatureImportance, 0, len(gain))
	for j, g := range gain {
		name := fmt.Sprintf("f%d", j)
		if j < len(features.FeatureNames) {
			name = features.FeatureNames[j]
		}
		out = append(out, FeatureImportance{Feature: name, Gain: g})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Gain > out[j].Gain })
	return out
}
