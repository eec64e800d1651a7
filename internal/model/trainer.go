// Package model trains the sales regressors: a scaled linear baseline and a
// grid-searched gradient-boosted tree ensemble.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/supermart-cli/internal/features"
	"github.com/KaramelBytes/supermart-cli/internal/logging"
)

// ErrTooFewRows is returned when the dataset cannot fill the train/test split and folds.
var ErrTooFewRows = errors.New("too few rows to train")

// TrainOptions control the split, search and parallelism.
type TrainOptions struct {
	Seed     int64
	TestSize float64
	Folds    int
	Grid     Grid
	// Workers bounds concurrent grid candidates; <= 0 means runtime.NumCPU().
	Workers int
	Logger  *slog.Logger
}

// DefaultTrainOptions mirrors the configuration defaults.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Seed: 42, TestSize: 0.2, Folds: 3, Grid: DefaultGrid()}
}

// Metrics is the model_metrics.json document.
type Metrics struct {
	LRMSE        float64  `json:"lr_mse"`
	LRR2         float64  `json:"lr_r2"`
	XGBMSE       float64  `json:"xgb_mse"`
	XGBR2        float64  `json:"xgb_r2"`
	BestParams   Params   `json:"best_params"`
	FeatureNames []string `json:"feature_names"`
}

// Result bundles the fitted models and their evaluation.
type Result struct {
	Model     *Booster
	Scaler    *StandardScaler
	Linear    *LinearRegression
	Metrics   Metrics
	CVScores  []CVScore
	BestIndex int
	TrainRows int
	TestRows  int
}

// Train splits the encoded rows, fits the linear baseline on scaled features,
// grid-searches the booster on raw features and refits the winner on the
// whole training split. Both models are scored on the held-out rows.
func Train(ctx context.Context, enc *features.Encoded, opts TrainOptions) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	if opts.Folds < 2 {
		return nil, fmt.Errorf("folds must be >= 2, got %d", opts.Folds)
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		return nil, fmt.Errorf("test size must be in (0,1), got %g", opts.TestSize)
	}
	x, y := enc.Matrix()
	if len(x) < opts.Folds+1 {
		return nil, fmt.Errorf("%w: have %d, need at least %d", ErrTooFewRows, len(x), opts.Folds+1)
	}

	trainIdx, testIdx := Split(len(x), opts.TestSize, opts.Seed)
	if len(trainIdx) < opts.Folds {
		return nil, fmt.Errorf("%w: %d training rows for %d folds", ErrTooFewRows, len(trainIdx), opts.Folds)
	}
	xTr, yTr := take(x, y, trainIdx)
	xTe, yTe := take(x, y, testIdx)
	log.Info("split dataset", "train_rows", len(xTr), "test_rows", len(xTe))

	scaler, err := FitScaler(xTr)
	if err != nil {
		return nil, err
	}
	lin, err := FitLinear(scaler.Transform(xTr), yTr)
	if err != nil {
		return nil, err
	}
	lrPred := lin.PredictAll(scaler.Transform(xTe))

	candidates := opts.Grid.Expand()
	start := time.Now()
	scores, best, err := GridSearch(ctx, xTr, yTr, candidates, opts.Folds, opts.Seed, opts.Workers, log)
	if err != nil {
		return nil, err
	}
	log.Info("grid search finished",
		"candidates", len(candidates),
		"best", scores[best].Params.String(),
		"best_cv_r2", scores[best].Mean,
		"duration", time.Since(start).Round(time.Millisecond))

	booster, err := FitBooster(ctx, xTr, yTr, scores[best].Params, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("refit: %w", err)
	}
	xgbPred := booster.PredictAll(xTe)

	return &Result{
		Model:  booster,
		Scaler: scaler,
		Linear: lin,
		Metrics: Metrics{
			LRMSE:        MeanSquaredError(yTe, lrPred),
			LRR2:         R2(yTe, lrPred),
			XGBMSE:       MeanSquaredError(yTe, xgbPred),
			XGBR2:        R2(yTe, xgbPred),
			BestParams:   scores[best].Params,
			FeatureNames: append([]string(nil), features.FeatureNames...),
		},
		CVScores:  scores,
		BestIndex: best,
		TrainRows: len(xTr),
		TestRows:  len(xTe),
	}, nil
}
