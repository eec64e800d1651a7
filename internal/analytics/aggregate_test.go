package analytics_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/supermart-cli/internal/analytics"
	"github.com/KaramelBytes/supermart-cli/internal/dataset"
)

func order(date string, category, city, region string, sales, profit float64) dataset.Order {
	o := dataset.Order{Category: category, City: city, Region: region, Sales: sales, Profit: profit, RawDate: date}
	o.OrderDate, o.DateValid = dataset.ParseOrderDate(date)
	return o
}

func TestAggregateTotalsAndGroups(t *testing.T) {
	ds := &dataset.Dataset{Orders: []dataset.Order{
		order("05-01-2018", "Snacks", "Vellore", "North", 100, 10),
		order("20-01-2018", "Bakery", "Salem", "West", 250, -20),
		order("03-02-2018", "Snacks", "Salem", "West", 50, 5),
		order("garbage", "Bakery", "Chennai", "East", 40, 4),
	}}
	doc := analytics.Aggregate(ds)

	assert.Equal(t, []analytics.MonthlyPoint{
		{Date: "2018-01-01", Sales: 350},
		{Date: "2018-02-01", Sales: 50},
	}, doc.MonthlySales, "invalid dates stay out of the monthly series")
	assert.Equal(t, analytics.Counts{{"Bakery", 290}, {"Snacks", 150}}, doc.CategorySales)
	assert.Equal(t, analytics.Counts{{"East", 40}, {"North", 100}, {"West", 300}}, doc.RegionSales)
	assert.Equal(t, analytics.Counts{{"Bakery", -16}, {"Snacks", 15}}, doc.ProfitByCategory)
	assert.Equal(t, analytics.Counts{{"Salem", 300}, {"Vellore", 100}, {"Chennai", 40}}, doc.TopCities)
	assert.Equal(t, int64(440), doc.TotalSales)
	assert.Equal(t, int64(4), doc.TotalOrders)
	assert.Equal(t, int64(-1), doc.TotalProfit)
	assert.Equal(t, int64(3), doc.UniqueCities)
	assert.InDelta(t, 110.0, doc.AvgOrderValue, 1e-12)
	require.NoError(t, doc.Validate())
}

func TestCategorySalesSumToTotal(t *testing.T) {
	var orders []dataset.Order
	for i := 0; i < 60; i++ {
		orders = append(orders, order("01-03-2019", fmt.Sprintf("cat%d", i%7), fmt.Sprintf("city%d", i%13), "North", float64(10+i*3), 1))
	}
	doc := analytics.Aggregate(&dataset.Dataset{Orders: orders})
	assert.Equal(t, doc.TotalSales, doc.CategorySales.Sum())
	assert.Equal(t, doc.TotalSales, doc.RegionSales.Sum())
}

func TestTruncationNotRounding(t *testing.T) {
	doc := analytics.Aggregate(&dataset.Dataset{Orders: []dataset.Order{
		order("01-03-2019", "Snacks", "Salem", "West", 10.9, -3.7),
	}})
	assert.Equal(t, int64(10), doc.TotalSales)
	assert.Equal(t, int64(-3), doc.TotalProfit)
	assert.InDelta(t, 10.9, doc.AvgOrderValue, 1e-12)
}

func TestTopCitiesCappedAndDescending(t *testing.T) {
	var orders []dataset.Order
	for i := 0; i < 15; i++ {
		orders = append(orders, order("01-03-2019", "Snacks", fmt.Sprintf("city%02d", i), "North", float64(100+i), 1))
	}
	doc := analytics.Aggregate(&dataset.Dataset{Orders: orders})
	require.Len(t, doc.TopCities, analytics.MaxTopCities)
	assert.Equal(t, "city14", doc.TopCities[0].Label)
	for i := 1; i < len(doc.TopCities); i++ {
		assert.GreaterOrEqual(t, doc.TopCities[i-1].Value, doc.TopCities[i].Value)
	}
	assert.Equal(t, int64(15), doc.UniqueCities)
}

func TestEmptyDatasetHasFiniteAverage(t *testing.T) {
	doc := analytics.Aggregate(&dataset.Dataset{})
	assert.Equal(t, 0.0, doc.AvgOrderValue)
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"monthly_sales":[]`)
	assert.Contains(t, string(b), `"category_sales":{}`)
}

func TestThreeRowScenarioLeavesOneOrder(t *testing.T) {
	p := filepath.Join(t.TempDir(), "orders.csv")
	body := "Order Date,Category,City,Region,Sales,Profit,Discount\n" +
		"01-02-2018,Snacks,Vellore,North,120,12,0.1\n" +
		"01-02-2018,Snacks,Vellore,North,120,12,0.1\n" +
		"01-03-2018,Bakery,,South,80,8,0.2\n"
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	ds, err := dataset.Load(p)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	doc := analytics.Aggregate(ds)
	assert.Equal(t, int64(1), doc.TotalOrders)
	assert.Equal(t, int64(120), doc.TotalSales)
}

func TestDocumentJSONKeyOrder(t *testing.T) {
	doc := analytics.Aggregate(&dataset.Dataset{Orders: []dataset.Order{
		order("01-03-2019", "Snacks", "Salem", "West", 10, 1),
		order("01-03-2019", "Snacks", "Vellore", "West", 30, 1),
	}})
	b, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	out := string(b)
	keys := []string{"monthly_sales", "category_sales", "region_sales", "profit_by_category", "top_cities",
		"total_sales", "total_orders", "avg_order_value", "total_profit", "unique_cities"}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, `"`+k+`"`)
		require.Greater(t, i, last, "key %s out of order", k)
		last = i
	}
	assert.Less(t, strings.Index(out, `"Vellore"`), strings.Index(out, `"Salem"`), "top_cities keeps value order")
	assert.Contains(t, out, `"date": "2019-03-01"`)
}

func TestCountsJSONRoundTripKeepsOrder(t *testing.T) {
	in := analytics.Counts{{"zeta", 9}, {"alpha", 3}, {`quo"te`, -1}}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out analytics.Counts
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	require.NoError(t, json.Unmarshal([]byte(`{"a": 2.9}`), &out))
	assert.Equal(t, analytics.Counts{{"a", 2}}, out)
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &out))
}

func TestValidateRejectsUnsortedTopCities(t *testing.T) {
	doc := &analytics.Document{TopCities: analytics.Counts{{"a", 1}, {"b", 5}}}
	assert.Error(t, doc.Validate())
}
