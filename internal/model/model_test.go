package model

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/supermart-cli/internal/features"
)

func TestSplitSizesAndDeterminism(t *testing.T) {
	train, test := Split(11, 0.2, 42)
	assert.Len(t, test, 3) // ceil(2.2)
	assert.Len(t, train, 8)

	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}

	train2, test2 := Split(11, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestKFoldContiguous(t *testing.T) {
	folds := KFold(10, 3)
	require.Len(t, folds, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, folds[0])
	assert.Equal(t, []int{4, 5, 6}, folds[1])
	assert.Equal(t, []int{7, 8, 9}, folds[2])
	assert.Equal(t, []int{0, 1, 2, 3, 7, 8, 9}, complement(10, folds[1]))
}

func TestScalerPopulationStdAndConstantColumn(t *testing.T) {
	x := [][]float64{{1, 7}, {3, 7}}
	s, err := FitScaler(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 7}, s.Mean)
	assert.Equal(t, []float64{1, 1}, s.Scale)
	assert.Equal(t, []float64{-1, 0}, s.TransformRow(x[0]))
	assert.Equal(t, []float64{1, 0}, s.TransformRow(x[1]))

	_, err = FitScaler(nil)
	assert.Error(t, err)
}

func TestLinearRecoversExactPlane(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		a, b := rng.Float64()*10, rng.Float64()*5
		x = append(x, []float64{a, b, 4})
		y = append(y, 3*a-2*b+5)
	}
	lr, err := FitLinear(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 3, lr.Coef[0], 1e-8)
	assert.InDelta(t, -2, lr.Coef[1], 1e-8)
	assert.InDelta(t, 0, lr.Coef[2], 1e-8, "constant column gets no weight")
	assert.InDelta(t, 5, lr.Intercept, 1e-8)
	assert.InDelta(t, 3*2-2*1+5, lr.Predict([]float64{2, 1, 4}), 1e-8)
}

func TestLinearAllConstantPredictsMean(t *testing.T) {
	lr, err := FitLinear([][]float64{{1}, {1}, {1}}, []float64{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 4, lr.Predict([]float64{1}), 1e-12)
}

func TestMetrics(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	assert.Equal(t, 0.0, MeanSquaredError(y, y))
	assert.InDelta(t, 1.0, MeanSquaredError(y, []float64{2, 3, 4, 5}), 1e-12)
	assert.InDelta(t, 1.0, R2(y, y), 1e-12)
	assert.InDelta(t, 0.0, R2(y, []float64{2.5, 2.5, 2.5, 2.5}), 1e-12)

	c := []float64{5, 5, 5}
	assert.Equal(t, 1.0, R2(c, c))
	assert.Equal(t, 0.0, R2(c, []float64{5, 5, 6}))
	assert.False(t, math.IsNaN(R2(nil, nil)))
}

func stepData(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n)
		x[i] = []float64{v, 1}
		if v >= 0.5 {
			y[i] = 10
		}
	}
	return x, y
}

func TestBoosterLearnsStep(t *testing.T) {
	x, y := stepData(100)
	b, err := FitBooster(context.Background(), x, y, Params{NEstimators: 50, MaxDepth: 1, LearningRate: 0.3, Subsample: 1, ColsampleByTree: 1}, 42)
	require.NoError(t, err)
	assert.InDelta(t, 5, b.BaseScore, 1e-12)
	assert.Len(t, b.Trees, 50)
	assert.InDelta(t, 0, b.Predict([]float64{0.1, 1}), 0.1)
	assert.InDelta(t, 10, b.Predict([]float64{0.9, 1}), 0.1)

	imp := b.Importance()
	assert.InDelta(t, 1, imp[0], 1e-12)
	assert.Equal(t, 0.0, imp[1], "constant feature never splits")
}

func TestBoosterDeterministicWithSubsampling(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var x [][]float64
	var y []float64
	for i := 0; i < 300; i++ {
		a, b := rng.Float64(), rng.NormFloat64()
		x = append(x, []float64{a, b, float64(i % 4)})
		y = append(y, 100*a+10*b)
	}
	p := Params{NEstimators: 20, MaxDepth: 3, LearningRate: 0.1, Subsample: 0.8, ColsampleByTree: 0.8}
	b1, err := FitBooster(context.Background(), x, y, p, 42)
	require.NoError(t, err)
	b2, err := FitBooster(context.Background(), x, y, p, 42)
	require.NoError(t, err)
	assert.Equal(t, b1.PredictAll(x), b2.PredictAll(x))
}

func TestBoosterRejectsBadParams(t *testing.T) {
	x, y := stepData(10)
	_, err := FitBooster(context.Background(), x, y, Params{NEstimators: 1, MaxDepth: 1, LearningRate: 0.1, Subsample: 1.5, ColsampleByTree: 1}, 1)
	assert.ErrorContains(t, err, "subsample")
}

func TestBoosterHonoursCancel(t *testing.T) {
	x, y := stepData(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FitBooster(ctx, x, y, Params{NEstimators: 5, MaxDepth: 2, LearningRate: 0.1, Subsample: 1, ColsampleByTree: 1}, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCutPointsCapsBins(t *testing.T) {
	col := make([]float64, 1000)
	for i := range col {
		col[i] = float64(i)
	}
	thr := cutPoints(col)
	assert.LessOrEqual(t, len(thr), maxBins-1)
	assert.True(t, sort.Float64sAreSorted(thr))
	assert.Equal(t, []float64{1.5, 2.5}, cutPoints([]float64{3, 1, 2, 2}))
	assert.Nil(t, cutPoints([]float64{4, 4}))
}

func TestGridExpandOrder(t *testing.T) {
	ps := DefaultGrid().Expand()
	require.Len(t, ps, 72)
	assert.Equal(t, Params{ColsampleByTree: 0.8, LearningRate: 0.05, MaxDepth: 3, NEstimators: 100, Subsample: 0.8}, ps[0])
	assert.Equal(t, Params{ColsampleByTree: 0.8, LearningRate: 0.05, MaxDepth: 3, NEstimators: 100, Subsample: 1}, ps[1])
	assert.Equal(t, Params{ColsampleByTree: 1, LearningRate: 0.2, MaxDepth: 7, NEstimators: 200, Subsample: 1}, ps[71])
}

func smallGrid() Grid {
	return Grid{
		NEstimators:     []int{10, 20},
		MaxDepth:        []int{2, 3},
		LearningRate:    []float64{0.1, 0.3},
		Subsample:       []float64{0.8, 1},
		ColsampleByTree: []float64{1},
	}
}

func TestGridSearchIndependentOfWorkers(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var x [][]float64
	var y []float64
	for i := 0; i < 90; i++ {
		a := rng.Float64()
		x = append(x, []float64{a, float64(i % 3)})
		y = append(y, 50*a+rng.NormFloat64())
	}
	cands := smallGrid().Expand()
	s1, b1, err := GridSearch(context.Background(), x, y, cands, 3, 42, 1, nil)
	require.NoError(t, err)
	s4, b4, err := GridSearch(context.Background(), x, y, cands, 3, 42, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, s1, s4)
	assert.Equal(t, b1, b4)
	for i := range s1 {
		assert.LessOrEqual(t, s1[i].Mean, s1[b1].Mean)
	}
}

func TestGridSearchEmptyGrid(t *testing.T) {
	x, y := stepData(9)
	_, _, err := GridSearch(context.Background(), x, y, nil, 3, 42, 1, nil)
	assert.Error(t, err)
}

func encodedRows(n int) *features.Encoded {
	rng := rand.New(rand.NewSource(11))
	enc := &features.Encoded{}
	for i := 0; i < n; i++ {
		profit := rng.Float64() * 200
		discount := float64(rng.Intn(4)) / 10
		enc.Rows = append(enc.Rows, features.Row{
			CategoryCode: i % 3,
			CityCode:     i % 5,
			RegionCode:   i % 2,
			Profit:       profit,
			Discount:     discount,
			Sales:        4*profit + 300*discount + 100,
		})
	}
	return enc
}

func TestGridValidate(t *testing.T) {
	assert.NoError(t, DefaultGrid().Validate())

	g := DefaultGrid()
	g.Subsample = []float64{0.8, 1.5}
	assert.ErrorContains(t, g.Validate(), "subsample")

	g = DefaultGrid()
	g.MaxDepth = nil
	assert.Error(t, g.Validate())
}

func TestTrainProducesFiniteMetrics(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.Grid = smallGrid()
	opts.Workers = 2
	res, err := Train(context.Background(), encodedRows(120), opts)
	require.NoError(t, err)

	assert.Equal(t, 96, res.TrainRows)
	assert.Equal(t, 24, res.TestRows)
	assert.Len(t, res.CVScores, 16)
	assert.Equal(t, res.CVScores[res.BestIndex].Params, res.Metrics.BestParams)
	assert.Equal(t, features.FeatureNames, res.Metrics.FeatureNames)
	for _, v := range []float64{res.Metrics.LRMSE, res.Metrics.LRR2, res.Metrics.XGBMSE, res.Metrics.XGBR2} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	assert.Greater(t, res.Metrics.LRR2, 0.99, "target is linear in the features")
	assert.Greater(t, res.Metrics.XGBR2, 0.5)

	again, err := Train(context.Background(), encodedRows(120), opts)
	require.NoError(t, err)
	assert.Equal(t, res.Metrics, again.Metrics)
}

func TestTrainTooFewRows(t *testing.T) {
	_, err := Train(context.Background(), encodedRows(3), DefaultTrainOptions())
	assert.True(t, errors.Is(err, ErrTooFewRows))
}

func TestMetricsJSONKeyOrder(t *testing.T) {
	b, err := json.Marshal(Metrics{
		BestParams:   Params{ColsampleByTree: 1, LearningRate: 0.1, MaxDepth: 3, NEstimators: 100, Subsample: 0.8},
		FeatureNames: features.FeatureNames,
	})
	require.NoError(t, err)
	out := string(b)
	last := -1
	for _, k := range []string{"lr_mse", "lr_r2", "xgb_mse", "xgb_r2", "best_params", "colsample_bytree",
		"learning_rate", "max_depth", "n_estimators", "subsample", "feature_names"} {
		i := strings.Index(out, `"`+k+`"`)
		require.Greater(t, i, last, k)
		last = i
	}
}
