// Package analytics computes the dashboard summary written to analytics.json.
package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MaxTopCities caps the top_cities mapping.
const MaxTopCities = 10

// RequiredKeys are the analytics.json keys the dashboard cannot render without.
var RequiredKeys = []string{"total_sales", "total_orders", "category_sales", "region_sales"}

// MonthlyPoint is one entry of monthly_sales.
type MonthlyPoint struct {
	Date  string `json:"date"`
	Sales int64  `json:"Sales"`
}

// Count is one label of a grouped sum.
type Count struct {
	Label string
	Value int64
}

// Counts is a label-to-integer mapping that keeps its order in JSON.
type Counts []Count

// MarshalJSON writes the counts as a JSON object in slice order.
func (c Counts) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, kv := range c {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(kv.Label)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(kv.Value, 10))
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. Fractional values truncate.
func (c *Counts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("counts: expected object, got %v", tok)
	}
	out := Counts{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("counts: value of %q: %w", key, err)
		}
		v, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return fmt.Errorf("counts: value of %q: %w", key, ferr)
			}
			v = int64(f)
		}
		out = append(out, Count{Label: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// Get returns the value for label.
func (c Counts) Get(label string) (int64, bool) {
	for _, kv := range c {
		if kv.Label == label {
			return kv.Value, true
		}
	}
	return 0, false
}

// Sum adds up every value.
func (c Counts) Sum() int64 {
	var s int64
	for _, kv := range c {
		s += kv.Value
	}
	return s
}

// Document is the flat analytics.json payload. Field order is the key order on disk.
type Document struct {
	MonthlySales     []MonthlyPoint `json:"monthly_sales"`
	CategorySales    Counts         `json:"category_sales"`
	RegionSales      Counts         `json:"region_sales"`
	ProfitByCategory Counts         `json:"profit_by_category"`
	TopCities        Counts         `json:"top_cities"`
	TotalSales       int64          `json:"total_sales"`
	TotalOrders      int64          `json:"total_orders"`
	AvgOrderValue    float64        `json:"avg_order_value"`
	TotalProfit      int64          `json:"total_profit"`
	UniqueCities     int64          `json:"unique_cities"`
}

// Validate checks the shape invariants of a document.
func (d *Document) Validate() error {
	if len(d.TopCities) > MaxTopCities {
		return fmt.Errorf("top_cities has %d entries, max %d", len(d.TopCities), MaxTopCities)
	}
	for i := 1; i < len(d.TopCities); i++ {
		if d.TopCities[i].Value > d.TopCities[i-1].Value {
			return fmt.Errorf("top_cities not descending at %q", d.TopCities[i].Label)
		}
	}
	for i := 1; i < len(d.MonthlySales); i++ {
		if d.MonthlySales[i].Date <= d.MonthlySales[i-1].Date {
			return fmt.Errorf("monthly_sales not ascending at %s", d.MonthlySales[i].Date)
		}
	}
	if math.IsNaN(d.AvgOrderValue) || math.IsInf(d.AvgOrderValue, 0) {
		return fmt.Errorf("avg_order_value is not finite")
	}
	return nil
}
