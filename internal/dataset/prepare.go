package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/supermart-cli/internal/utils"
)

// Prepare rewrites a raw shop export into the orders CSV at outPath with
// "Order Date" formatted as DD-MM-YYYY. shopPath may point at a .csv or
// .xlsx file; for a .csv path that does not exist, the sibling .xlsx is tried.
// It reports false when no shop export exists.
func Prepare(shopPath, outPath string) (bool, error) {
	src, ok := resolveShopFile(shopPath)
	if !ok {
		return false, nil
	}
	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(src), ".xlsx") {
		rows, err = readShopXLSX(src)
	} else {
		rows, err = readShopCSV(src)
	}
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, &SchemaError{Path: src, Missing: append([]string(nil), RequiredColumns...)}
	}
	header := NormalizeHeader(rows[0])
	dateCol := -1
	for i, h := range header {
		if h == ColOrderDate {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return false, &SchemaError{Path: src, Missing: []string{ColOrderDate}}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rows[0]); err != nil {
		return false, fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows[1:] {
		out := make([]string, len(rows[0]))
		copy(out, row)
		if dateCol < len(out) {
			out[dateCol] = reformatDate(out[dateCol])
		}
		if err := w.Write(out); err != nil {
			return false, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("flush csv: %w", err)
	}
	if err := utils.SafeWriteFile(outPath, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

func resolveShopFile(shopPath string) (string, bool) {
	if shopPath == "" {
		return "", false
	}
	if utils.Exists(shopPath) {
		return shopPath, true
	}
	if strings.EqualFold(filepath.Ext(shopPath), ".csv") {
		alt := strings.TrimSuffix(shopPath, filepath.Ext(shopPath)) + ".xlsx"
		if utils.Exists(alt) {
			return alt, true
		}
	}
	return "", false
}

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958466

// reformatDate writes parseable dates as DD-MM-YYYY; anything else becomes empty.
// Bare numbers are Excel serial dates.
func reformatDate(raw string) string {
	if t, ok := ParseOrderDate(raw); ok {
		return t.Format(OutputDateLayout)
	}
	if serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && serial > 0 && serial < maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(OutputDateLayout)
		}
	}
	return ""
}

func readShopCSV(path string) ([][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("read shop csv: %w", err)
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse shop csv: %w", err)
	}
	return rows, nil
}

// readShopXLSX returns the first sheet with raw cell values so dates come back as serials.
func readShopXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
