// Package inspect prints a quick look at the cleaned orders CSV and the
// analytics document of a pipeline root.
package inspect

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/supermart-cli/internal/analytics"
	"github.com/KaramelBytes/supermart-cli/internal/artifacts"
	"github.com/KaramelBytes/supermart-cli/internal/dataset"
)

// ErrNoAnalytics is returned when analytics.json has not been written yet.
var ErrNoAnalytics = errors.New("analytics file not found")

const sampleRows = 2

// Summary describes the raw input and the analytics document.
type Summary struct {
	CSVPath  string
	Rows     int
	Columns  []string
	DateFrom time.Time
	DateTo   time.Time
	HasDates bool
	Sample   [][]string

	AnalyticsPath  string
	AnalyticsKeys  []string
	AnalyticsError string
	Analytics      *analytics.Document
}

// Run reads both files under layout.
func Run(layout artifacts.Layout) (*Summary, error) {
	s := &Summary{CSVPath: layout.Rel(layout.InputPath()), AnalyticsPath: layout.Rel(layout.AnalyticsPath())}
	if err := s.readCSV(layout.InputPath()); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(layout.AnalyticsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoAnalytics, s.AnalyticsPath)
		}
		return nil, fmt.Errorf("read analytics: %w", err)
	}
	keys, err := topLevelKeys(b)
	if err != nil {
		s.AnalyticsError = err.Error()
		return s, nil
	}
	s.AnalyticsKeys = keys
	var doc analytics.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		s.AnalyticsError = err.Error()
		return s, nil
	}
	s.Analytics = &doc
	return s, nil
}

func (s *Summary) readCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", dataset.ErrMissingInput, path)
		}
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	s.Columns = dataset.NormalizeHeader(header)
	dateCol := -1
	for i, c := range s.Columns {
		if c == dataset.ColOrderDate {
			dateCol = i
		}
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv: %w", err)
		}
		s.Rows++
		if len(s.Sample) < sampleRows {
			s.Sample = append(s.Sample, rec)
		}
		if dateCol < 0 || dateCol >= len(rec) {
			continue
		}
		d, ok := dataset.ParseOrderDate(rec[dateCol])
		if !ok {
			continue
		}
		if !s.HasDates || d.Before(s.DateFrom) {
			s.DateFrom = d
		}
		if !s.HasDates || d.After(s.DateTo) {
			s.DateTo = d
		}
		s.HasDates = true
	}
	return nil
}

func topLevelKeys(b []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("analytics is not a JSON object")
	}
	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, kt.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Markdown renders the summary in bracketed sections.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[ORDERS CSV]\n")
	fmt.Fprintf(&b, "File: %s\n", s.CSVPath)
	fmt.Fprintf(&b, "Shape: (%d, %d)\n", s.Rows, len(s.Columns))
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(s.Columns, ", "))
	if s.HasDates {
		fmt.Fprintf(&b, "Date range: %s to %s\n",
			s.DateFrom.Format(dataset.OutputDateLayout), s.DateTo.Format(dataset.OutputDateLayout))
	}
	if len(s.Sample) > 0 {
		b.WriteString("Sample:\n")
		for _, row := range s.Sample {
			fmt.Fprintf(&b, "- %s\n", strings.Join(row, " | "))
		}
	}

	b.WriteString("\n[ANALYTICS]\n")
	fmt.Fprintf(&b, "File: %s\n", s.AnalyticsPath)
	if s.AnalyticsError != "" {
		fmt.Fprintf(&b, "Invalid JSON: %s\n", s.AnalyticsError)
		return b.String()
	}
	fmt.Fprintf(&b, "Keys: %s\n", strings.Join(s.AnalyticsKeys, ", "))
	doc := s.Analytics
	if doc == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "Monthly sales data points: %d\n", len(doc.MonthlySales))
	if len(doc.MonthlySales) > 0 {
		m := doc.MonthlySales[0]
		fmt.Fprintf(&b, "First month: %s = %d\n", m.Date, m.Sales)
	}
	fmt.Fprintf(&b, "Categories: %d\n", len(doc.CategorySales))
	for _, kv := range doc.CategorySales {
		fmt.Fprintf(&b, "- %s: %d\n", kv.Label, kv.Value)
	}
	fmt.Fprintf(&b, "Total sales: ₹%s\n", groupThousands(doc.TotalSales))
	fmt.Fprintf(&b, "Total orders: %s\n", groupThousands(doc.TotalOrders))
	return b.String()
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
