package model

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
)

const (
	maxBins        = 256
	lambda         = 1.0
	minChildWeight = 1.0
)

// Params are the boosted-tree hyperparameters. Field order is the key order
// of best_params in model_metrics.json.
type Params struct {
	ColsampleByTree float64 `json:"colsample_bytree" yaml:"colsample_bytree"`
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth        int     `json:"max_depth" yaml:"max_depth"`
	NEstimators     int     `json:"n_estimators" yaml:"n_estimators"`
	Subsample       float64 `json:"subsample" yaml:"subsample"`
}

func (p Params) String() string {
	return fmt.Sprintf("n_estimators=%d max_depth=%d learning_rate=%g subsample=%g colsample_bytree=%g",
		p.NEstimators, p.MaxDepth, p.LearningRate, p.Subsample, p.ColsampleByTree)
}

// Validate reports the first out-of-range hyperparameter.
func (p Params) Validate() error {
	switch {
	case p.NEstimators < 1:
		return fmt.Errorf("n_estimators must be >= 1, got %d", p.NEstimators)
	case p.MaxDepth < 1:
		return fmt.Errorf("max_depth must be >= 1, got %d", p.MaxDepth)
	case p.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be > 0, got %g", p.LearningRate)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("subsample must be in (0,1], got %g", p.Subsample)
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return fmt.Errorf("colsample_bytree must be in (0,1], got %g", p.ColsampleByTree)
	}
	return nil
}

// Node is one node of a regression tree stored in a flat slice.
// Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a single boosting round.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Booster is a gradient-boosted ensemble of regression trees fitted on
// squared error.
type Booster struct {
	Params      Params
	BaseScore   float64
	NumFeatures int
	Trees       []Tree
	// Gain is the total split gain per feature.
	Gain []float64
}

// Predict returns the ensemble output for one raw feature row.
func (b *Booster) Predict(row []float64) float64 {
	v := b.BaseScore
	for i := range b.Trees {
		v += b.Trees[i].predict(row)
	}
	return v
}

// PredictAll predicts every row.
func (b *Booster) PredictAll(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = b.Predict(row)
	}
	return out
}

// Importance returns the split gain per feature normalised to sum to 1.
func (b *Booster) Importance() []float64 {
	out := make([]float64, b.NumFeatures)
	var total float64
	for _, g := range b.Gain {
		total += g
	}
	if total == 0 {
		return out
	}
	for j, g := range b.Gain {
		out[j] = g / total
	}
	return out
}

// binner maps raw values to histogram bins. thresholds[f] are ascending
// split candidates; a value v falls in the first bin whose threshold is >= v.
type binner struct {
	thresholds [][]float64
	bins       [][]uint8 // [feature][row]
}

func newBinner(x [][]float64, p int) *binner {
	b := &binner{thresholds: make([][]float64, p), bins: make([][]uint8, p)}
	col := make([]float64, len(x))
	for f := 0; f < p; f++ {
		for i, row := range x {
			col[i] = row[f]
		}
		thr := cutPoints(col)
		b.thresholds[f] = thr
		bins := make([]uint8, len(x))
		for i, v := range col {
			bins[i] = uint8(sort.SearchFloat64s(thr, v))
		}
		b.bins[f] = bins
	}
	return b
}

// cutPoints returns at most maxBins-1 midpoints between distinct values,
// picked at evenly spaced quantiles when there are more distinct values than bins.
func cutPoints(col []float64) []float64 {
	vals := append([]float64(nil), col...)
	sort.Float64s(vals)
	distinct := vals[:0]
	for i, v := range vals {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}
	if len(distinct) <= maxBins {
		out := make([]float64, len(distinct)-1)
		for i := range out {
			out[i] = (distinct[i] + distinct[i+1]) / 2
		}
		return out
	}
	out := make([]float64, 0, maxBins-1)
	for q := 1; q < maxBins; q++ {
		k := q * len(distinct) / maxBins
		t := (distinct[k-1] + distinct[k]) / 2
		if len(out) == 0 || t > out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

type treeBuilder struct {
	params Params
	bin    *binner
	grad   []float64
	cols   []int
	gain   []float64
	nodes  []Node
	histG  []float64
	histH  []float64
}

type split struct {
	feature int
	bin     int
	gain    float64
}

// FitBooster trains a booster on raw features. The same seed and data always
// produce the same model.
func FitBooster(ctx context.Context, x [][]float64, y []float64, params Params, seed int64) (*Booster, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit booster: %d rows, %d targets", n, len(y))
	}
	p := len(x[0])

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	b := &Booster{Params: params, BaseScore: base, NumFeatures: p, Gain: make([]float64, p)}
	bin := newBinner(x, p)
	rng := rand.New(rand.NewSource(seed))

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	grad := make([]float64, n)
	nRows := int(params.Subsample * float64(n))
	if nRows < 1 {
		nRows = 1
	}
	nCols := int(params.ColsampleByTree * float64(p))
	if nCols < 1 {
		nCols = 1
	}

	for t := 0; t < params.NEstimators; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range grad {
			grad[i] = pred[i] - y[i]
		}

		rows := rng.Perm(n)
		if nRows < n {
			rows = rows[:nRows]
		}
		cols := rng.Perm(p)[:nCols]
		sort.Ints(cols)

		tb := &treeBuilder{
			params: params,
			bin:    bin,
			grad:   grad,
			cols:   cols,
			gain:   b.Gain,
			histG:  make([]float64, maxBins),
			histH:  make([]float64, maxBins),
		}
		tb.build(rows, 0)
		tree := Tree{Nodes: tb.nodes}
		b.Trees = append(b.Trees, tree)
		for i, row := range x {
			pred[i] += tree.predict(row)
		}
	}
	return b, nil
}

// build appends the subtree for rows and returns its node index.
func (tb *treeBuilder) build(rows []int, depth int) int {
	var g float64
	for _, i := range rows {
		g += tb.grad[i]
	}
	h := float64(len(rows))

	id := len(tb.nodes)
	tb.nodes = append(tb.nodes, Node{Feature: -1, Value: -g / (h + lambda) * tb.params.LearningRate})
	if depth >= tb.params.MaxDepth || h < 2*minChildWeight {
		return id
	}
	best, ok := tb.bestSplit(rows, g, h)
	if !ok {
		return id
	}
	thr := tb.bin.thresholds[best.feature][best.bin]
	bins := tb.bin.bins[best.feature]
	var left, right []int
	for _, i := range rows {
		if int(bins[i]) <= best.bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	tb.gain[best.feature] += best.gain
	l := tb.build(left, depth+1)
	r := tb.build(right, depth+1)
	tb.nodes[id] = Node{Feature: best.feature, Threshold: thr, Left: l, Right: r}
	return id
}

func (tb *treeBuilder) bestSplit(rows []int, g, h float64) (split, bool) {
	parent := g * g / (h + lambda)
	best := split{feature: -1}
	for _, f := range tb.cols {
		thr := tb.bin.thresholds[f]
		if len(thr) == 0 {
			continue
		}
		hg, hh := tb.histG[:len(thr)+1], tb.histH[:len(thr)+1]
		for k := range hg {
			hg[k], hh[k] = 0, 0
		}
		bins := tb.bin.bins[f]
		for _, i := range rows {
			hg[bins[i]] += tb.grad[i]
			hh[bins[i]]++
		}
		var gl, hl float64
		for k := 0; k < len(thr); k++ {
			gl += hg[k]
			hl += hh[k]
			hr := h - hl
			if hl < minChildWeight || hr < minChildWeight {
				continue
			}
			gr := g - gl
			gain := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent)
			if gain > best.gain {
				best = split{feature: f, bin: k, gain: gain}
			}
		}
	}
	return best, best.feature >= 0
}
