package dataset_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/supermart-cli/internal/dataset"
)

const header = "Order ID,Order Date,Category,City,Region,Sales,Discount,Profit\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDropsDuplicateAndNullRows(t *testing.T) {
	p := writeCSV(t, header+
		"OD1,08-11-2017,Oil & Masala,Vellore,North,1254,0.12,401.28\n"+
		"OD1,08-11-2017,Oil & Masala,Vellore,North,1254,0.12,401.28\n"+
		"OD2,,Beverages,Krishnagiri,South,749,0.18,149.8\n")

	ds, err := dataset.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.RawRows)
	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, 1, ds.DroppedNull)
	assert.Equal(t, 1, ds.DroppedDuplicate)
	assert.LessOrEqual(t, ds.Len(), ds.RawRows)

	o := ds.Orders[0]
	assert.Equal(t, "Oil & Masala", o.Category)
	assert.Equal(t, "Vellore", o.City)
	assert.InDelta(t, 1254.0, o.Sales, 1e-9)
	assert.InDelta(t, 401.28, o.Profit, 1e-9)
	assert.True(t, o.DateValid)
	assert.Equal(t, 2017, o.OrderDate.Year())
	assert.Equal(t, 11, int(o.OrderDate.Month()))
}

func TestLoadNormalizesHeaderWhitespace(t *testing.T) {
	p := writeCSV(t, " Order Date ,\"Category\n\", City,Region ,Sales,Profit,Discount\n"+
		"2018-06-12,Snacks,Perambalur,West,2360,165.2,0.21\n")
	ds, err := dataset.Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Order Date", "Category", "City", "Region", "Sales", "Profit", "Discount"}, ds.Columns)
	assert.Equal(t, 1, ds.Len())
}

func TestLoadKeepsUnparseableDates(t *testing.T) {
	p := writeCSV(t, header+
		"OD1,someday,Snacks,Perambalur,West,2360,0.21,165.2\n"+
		"OD2,12-06-2018,Snacks,Perambalur,West,100,0.1,10\n")
	ds, err := dataset.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 1, ds.InvalidDates)
	assert.False(t, ds.Orders[0].DateValid)
	assert.True(t, ds.Orders[0].OrderDate.IsZero())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := dataset.Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrMissingInput))
}

func TestLoadMissingColumns(t *testing.T) {
	p := writeCSV(t, "Order Date,Category,Sales\n01-01-2018,Snacks,10\n")
	_, err := dataset.Load(p)
	var se *dataset.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, []string{"City", "Region", "Profit", "Discount"}, se.Missing)
}

func TestLoadRejectsNonNumericSales(t *testing.T) {
	p := writeCSV(t, header+"OD1,01-01-2018,Snacks,Vellore,East,lots,0.1,5\n")
	_, err := dataset.Load(p)
	var se *dataset.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "Sales", se.Column)
	assert.Equal(t, 1, se.Row)
}

func TestLoadRejectsInfiniteValues(t *testing.T) {
	p := writeCSV(t, header+"OD1,01-01-2018,Snacks,Vellore,East,inf,0.1,5\n")
	_, err := dataset.Load(p)
	var se *dataset.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "Sales", se.Column)
}

func TestLoadEmptyFile(t *testing.T) {
	p := writeCSV(t, "")
	_, err := dataset.Load(p)
	var se *dataset.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Missing, len(dataset.RequiredColumns))
}

func TestLoadDedupesOnNumericValue(t *testing.T) {
	p := writeCSV(t, header+
		"OD1,08-11-2017,Snacks,Vellore,North,100,0.1,20\n"+
		"OD1,08-11-2017,Snacks,Vellore,North,100.0,0.10,20.00\n"+
		"OD1,08-11-2017,Snacks,Vellore,North,101,0.1,20\n")
	ds, err := dataset.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.RawRows)
	assert.Equal(t, 1, ds.DroppedDuplicate)
	assert.Len(t, ds.Orders, 2)
}

func TestLoadRejectsExtraFields(t *testing.T) {
	p := writeCSV(t, header+
		"OD1,08-11-2017,Snacks,Vellore,North,100,0.1,20\n"+
		"OD2,08-11-2017,Snacks,Vellore,North,100,0.1,20,surplus\n")
	_, err := dataset.Load(p)
	var se *dataset.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Row)
	assert.Contains(t, se.Error(), "row 2: expected 8 fields, got 9")
}
