package analytics

import (
	"sort"
	"time"

	"github.com/KaramelBytes/supermart-cli/internal/dataset"
)

const monthLayout = "2006-01-02"

// Aggregate groups the cleaned orders by month, category, region and city.
// Sums accumulate in float64 and truncate toward zero on output.
func Aggregate(ds *dataset.Dataset) *Document {
	categorySales := make(map[string]float64)
	categoryProfit := make(map[string]float64)
	regionSales := make(map[string]float64)
	citySales := make(map[string]float64)
	monthly := make(map[time.Time]float64)

	var totalSales, totalProfit float64
	for _, o := range ds.Orders {
		categorySales[o.Category] += o.Sales
		categoryProfit[o.Category] += o.Profit
		regionSales[o.Region] += o.Sales
		citySales[o.City] += o.Sales
		if o.DateValid {
			monthly[o.Month()] += o.Sales
		}
		totalSales += o.Sales
		totalProfit += o.Profit
	}

	doc := &Document{
		MonthlySales:     sortMonthly(monthly),
		CategorySales:    byLabel(categorySales),
		RegionSales:      byLabel(regionSales),
		ProfitByCategory: byLabel(categoryProfit),
		TopCities:        topByValue(citySales, MaxTopCities),
		TotalSales:       int64(totalSales),
		TotalOrders:      int64(len(ds.Orders)),
		TotalProfit:      int64(totalProfit),
		UniqueCities:     int64(len(citySales)),
	}
	if n := len(ds.Orders); n > 0 {
		doc.AvgOrderValue = totalSales / float64(n)
	}
	return doc
}

func sortMonthly(groups map[time.Time]float64) []MonthlyPoint {
	months := make([]time.Time, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	out := make([]MonthlyPoint, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyPoint{Date: m.Format(monthLayout), Sales: int64(groups[m])})
	}
	return out
}

func byLabel(groups map[string]float64) Counts {
	labels := make([]string, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	out := make(Counts, 0, len(labels))
	for _, l := range labels {
		out = append(out, Count{Label: l, Value: int64(groups[l])})
	}
	return out
}

// topByValue ranks on the untruncated sums, ties by label.
func topByValue(groups map[string]float64, limit int) Counts {
	type kv struct {
		label string
		sum   float64
	}
	all := make([]kv, 0, len(groups))
	for l, s := range groups {
		all = append(all, kv{l, s})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].sum == all[j].sum {
			return all[i].label < all[j].label
		}
		return all[i].sum > all[j].sum
	})
	if len(all) > limit {
		all = all[:limit]
	}
	out := make(Counts, 0, len(all))
	for _, e := range all {
		out = append(out, Count{Label: e.label, Value: int64(e.sum)})
	}
	return out
}
