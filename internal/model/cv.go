package model

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/supermart-cli/internal/logging"
)

// Grid lists the values searched for each hyperparameter.
type Grid struct {
	NEstimators     []int
	MaxDepth        []int
	LearningRate    []float64
	Subsample       []float64
	ColsampleByTree []float64
}

// DefaultGrid is the search space used when none is configured.
func DefaultGrid() Grid {
	return Grid{
		NEstimators:     []int{100, 200},
		MaxDepth:        []int{3, 5, 7},
		LearningRate:    []float64{0.05, 0.1, 0.2},
		Subsample:       []float64{0.8, 1},
		ColsampleByTree: []float64{0.8, 1},
	}
}

// Validate rejects empty lists and any value FitBooster would refuse.
func (g Grid) Validate() error {
	if len(g.NEstimators) == 0 || len(g.MaxDepth) == 0 || len(g.LearningRate) == 0 ||
		len(g.Subsample) == 0 || len(g.ColsampleByTree) == 0 {
		return fmt.Errorf("every grid list needs at least one value")
	}
	for _, p := range g.Expand() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Expand enumerates every combination with parameter names in alphabetical
// order and the last name varying fastest.
func (g Grid) Expand() []Params {
	var out []Params
	for _, cs := range g.ColsampleByTree {
		for _, lr := range g.LearningRate {
			for _, md := range g.MaxDepth {
				for _, ne := range g.NEstimators {
					for _, ss := range g.Subsample {
						out = append(out, Params{
							ColsampleByTree: cs,
							LearningRate:    lr,
							MaxDepth:        md,
							NEstimators:     ne,
							Subsample:       ss,
						})
					}
				}
			}
		}
	}
	return out
}

// CVScore is the cross-validated R² of one grid candidate.
type CVScore struct {
	Params Params    `json:"params"`
	Folds  []float64 `json:"folds"`
	Mean   float64   `json:"mean"`
}

// GridSearch scores every candidate with k-fold cross-validation and returns
// the scores in grid order along with the index of the best mean. Ties keep
// the earlier candidate. Candidates run on up to workers goroutines; the
// result does not depend on the worker count.
func GridSearch(ctx context.Context, x [][]float64, y []float64, candidates []Params, folds int, seed int64, workers int, log *slog.Logger) ([]CVScore, int, error) {
	if len(candidates) == 0 {
		return nil, -1, fmt.Errorf("grid search: empty grid")
	}
	if folds < 2 {
		return nil, -1, fmt.Errorf("grid search: need at least 2 folds, got %d", folds)
	}
	if len(x) < folds {
		return nil, -1, fmt.Errorf("%w: %d training rows for %d folds", ErrTooFewRows, len(x), folds)
	}
	for _, p := range candidates {
		if err := p.Validate(); err != nil {
			return nil, -1, fmt.Errorf("grid search: %w", err)
		}
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logging.Discard()
	}

	splits := KFold(len(x), folds)
	scores := make([]CVScore, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range candidates {
		g.Go(func() error {
			s, err := crossValidate(gctx, x, y, splits, p, seed)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", p, err)
			}
			scores[i] = s
			log.Debug("grid candidate scored", "index", i, "params", p.String(), "mean_r2", s.Mean)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, -1, err
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Mean > scores[best].Mean {
			best = i
		}
	}
	return scores, best, nil
}

func crossValidate(ctx context.Context, x [][]float64, y []float64, splits [][]int, p Params, seed int64) (CVScore, error) {
	s := CVScore{Params: p, Folds: make([]float64, len(splits))}
	for f, testIdx := range splits {
		trainIdx := complement(len(x), testIdx)
		xTr, yTr := take(x, y, trainIdx)
		xTe, yTe := take(x, y, testIdx)
		b, err := FitBooster(ctx, xTr, yTr, p, seed)
		if err != nil {
			return s, err
		}
		s.Folds[f] = R2(yTe, b.PredictAll(xTe))
		s.Mean += s.Folds[f]
	}
	s.Mean /= float64(len(splits))
	return s, nil
}
