package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Load reads the orders CSV at path and returns the cleaned dataset.
// Rows with any missing cell and exact duplicate rows are dropped; dates that
// do not parse are kept with DateValid=false.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return read(f, path)
}

func read(src io.Reader, path string) (*Dataset, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Path: path, Missing: append([]string(nil), RequiredColumns...)}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := NormalizeHeader(header)
	idx, missing := indexColumns(cols)
	if len(missing) > 0 {
		return nil, &SchemaError{Path: path, Missing: missing}
	}

	ds := &Dataset{Path: path, Columns: cols}
	ncol := len(cols)
	seen := make(map[string]struct{})
	v := orderValidator()
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", ds.RawRows+1, err)
		}
		ds.RawRows++
		if len(rec) > ncol {
			return nil, &SchemaError{Path: path, Row: ds.RawRows, Reason: fmt.Sprintf("expected %d fields, got %d", ncol, len(rec))}
		}
		row := make([]string, ncol)
		for j := 0; j < len(rec); j++ {
			row[j] = strings.TrimSpace(rec[j])
		}
		if hasNull(row) {
			ds.DroppedNull++
			continue
		}
		o, err := toOrder(row, idx, ds.RawRows, path)
		if err != nil {
			return nil, err
		}
		key := dedupeKey(row, idx, o)
		if _, dup := seen[key]; dup {
			ds.DroppedDuplicate++
			continue
		}
		seen[key] = struct{}{}

		if err := v.Struct(o); err != nil {
			return nil, validationError(err, ds.RawRows, path)
		}
		if !o.DateValid {
			ds.InvalidDates++
		}
		ds.Orders = append(ds.Orders, o)
	}
	return ds, nil
}

// NormalizeHeader trims header names and folds embedded newlines into spaces.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		h = strings.ReplaceAll(h, "\r\n", " ")
		h = strings.ReplaceAll(h, "\n", " ")
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func indexColumns(cols []string) (map[string]int, []string) {
	idx := make(map[string]int, len(RequiredColumns))
	for i, c := range cols {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	return idx, missing
}

func hasNull(row []string) bool {
	for _, c := range row {
		if IsNull(c) {
			return true
		}
	}
	return false
}

// dedupeKey joins the row's cells with numeric columns in canonical form,
// so "100" and "100.0" compare equal.
func dedupeKey(row []string, idx map[string]int, o Order) string {
	cells := append([]string(nil), row...)
	cells[idx[ColSales]] = strconv.FormatFloat(o.Sales, 'g', -1, 64)
	cells[idx[ColProfit]] = strconv.FormatFloat(o.Profit, 'g', -1, 64)
	cells[idx[ColDiscount]] = strconv.FormatFloat(o.Discount, 'g', -1, 64)
	return strings.Join(cells, "\x1f")
}

func toOrder(row []string, idx map[string]int, rowNum int, path string) (Order, error) {
	o := Order{
		RawDate:  row[idx[ColOrderDate]],
		Category: row[idx[ColCategory]],
		City:     row[idx[ColCity]],
		Region:   row[idx[ColRegion]],
	}
	o.OrderDate, o.DateValid = ParseOrderDate(o.RawDate)
	for _, nc := range []struct {
		col string
		dst *float64
	}{
		{ColSales, &o.Sales},
		{ColProfit, &o.Profit},
		{ColDiscount, &o.Discount},
	} {
		raw := row[idx[nc.col]]
		x, ok := parseNumber(raw)
		if !ok {
			return Order{}, &SchemaError{Path: path, Row: rowNum, Column: nc.col, Value: raw, Reason: "not a number"}
		}
		*nc.dst = x
	}
	return o, nil
}

func validationError(err error, rowNum int, path string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate row %d: %w", rowNum, err)
	}
	fe := verrs[0]
	return &SchemaError{
		Path:   path,
		Row:    rowNum,
		Column: fe.Field(),
		Value:  fmt.Sprint(fe.Value()),
		Reason: fmt.Sprintf("failed %q check", fe.Tag()),
	}
}
