// Package features turns cleaned orders into the numeric matrix the trainer consumes.
package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/supermart-cli/internal/dataset"
)

// FeatureNames is the column order of every feature row.
var FeatureNames = []string{dataset.ColCategory, dataset.ColCity, dataset.ColRegion, dataset.ColProfit, dataset.ColDiscount}

// CategoricalColumns are label-encoded in this order.
var CategoricalColumns = []string{dataset.ColCategory, dataset.ColCity, dataset.ColRegion}

// LabelEncoder maps the distinct labels of one column to their index in sorted order.
type LabelEncoder struct {
	Column  string
	Classes []string
	index   map[string]int
}

// FitLabelEncoder collects the distinct labels and sorts them, so the codes
// do not depend on row order.
func FitLabelEncoder(column string, labels []string) *LabelEncoder {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	classes := make([]string, 0, len(set))
	for l := range set {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	return &LabelEncoder{Column: column, Classes: classes}
}

// Transform returns the code of label.
func (e *LabelEncoder) Transform(label string) (int, error) {
	if e.index == nil {
		e.index = make(map[string]int, len(e.Classes))
		for i, c := range e.Classes {
			e.index[c] = i
		}
	}
	code, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("unknown %s label %q", e.Column, label)
	}
	return code, nil
}

// InverseTransform returns the label behind code.
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("%s code %d out of range [0,%d)", e.Column, code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// Row is one encoded order.
type Row struct {
	CategoryCode int
	CityCode     int
	RegionCode   int
	Profit       float64
	Discount     float64
	Sales        float64
	ProfitMargin float64
}

// Features returns the row in FeatureNames order.
func (r Row) Features() []float64 {
	return []float64{float64(r.CategoryCode), float64(r.CityCode), float64(r.RegionCode), r.Profit, r.Discount}
}

// Encoded is the dataset with categorical columns replaced by codes.
type Encoded struct {
	Rows     []Row
	Encoders map[string]*LabelEncoder
}

// Fit builds one encoder per categorical column and encodes every order.
func Fit(ds *dataset.Dataset) *Encoded {
	labels := map[string][]string{}
	for _, o := range ds.Orders {
		labels[dataset.ColCategory] = append(labels[dataset.ColCategory], o.Category)
		labels[dataset.ColCity] = append(labels[dataset.ColCity], o.City)
		labels[dataset.ColRegion] = append(labels[dataset.ColRegion], o.Region)
	}
	enc := &Encoded{Encoders: make(map[string]*LabelEncoder, len(CategoricalColumns))}
	for _, col := range CategoricalColumns {
		enc.Encoders[col] = FitLabelEncoder(col, labels[col])
	}
	enc.Rows = make([]Row, 0, len(ds.Orders))
	for _, o := range ds.Orders {
		// labels were fitted from these same orders, Transform cannot fail
		cat, _ := enc.Encoders[dataset.ColCategory].Transform(o.Category)
		city, _ := enc.Encoders[dataset.ColCity].Transform(o.City)
		reg, _ := enc.Encoders[dataset.ColRegion].Transform(o.Region)
		enc.Rows = append(enc.Rows, Row{
			CategoryCode: cat,
			CityCode:     city,
			RegionCode:   reg,
			Profit:       o.Profit,
			Discount:     o.Discount,
			Sales:        o.Sales,
			ProfitMargin: ProfitMargin(o.Profit, o.Sales),
		})
	}
	return enc
}

// Encode maps raw labels and numbers to a feature row using the fitted encoders.
func (e *Encoded) Encode(category, city, region string, profit, discount float64) ([]float64, error) {
	return EncodeWith(e.Encoders, category, city, region, profit, discount)
}

// EncodeWith is Encode for encoders loaded from disk.
func EncodeWith(encoders map[string]*LabelEncoder, category, city, region string, profit, discount float64) ([]float64, error) {
	codes := make([]float64, 0, len(FeatureNames))
	for _, p := range []struct{ col, label string }{
		{dataset.ColCategory, category},
		{dataset.ColCity, city},
		{dataset.ColRegion, region},
	} {
		le, ok := encoders[p.col]
		if !ok {
			return nil, fmt.Errorf("no encoder for column %s", p.col)
		}
		code, err := le.Transform(p.label)
		if err != nil {
			return nil, fmt.Errorf("%w (known: %v)", err, le.Classes)
		}
		codes = append(codes, float64(code))
	}
	return append(codes, profit, discount), nil
}

// Matrix returns the feature rows and the Sales target.
func (e *Encoded) Matrix() ([][]float64, []float64) {
	x := make([][]float64, len(e.Rows))
	y := make([]float64, len(e.Rows))
	for i, r := range e.Rows {
		x[i] = r.Features()
		y[i] = r.Sales
	}
	return x, y
}

// ProfitMargin is profit/sales, 0 when sales is zero.
func ProfitMargin(profit, sales float64) float64 {
	if sales == 0 {
		return 0
	}
	m := profit / sales
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return m
}
