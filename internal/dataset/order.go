package dataset

import (
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Column names of the orders CSV.
const (
	ColOrderDate = "Order Date"
	ColCategory  = "Category"
	ColCity      = "City"
	ColRegion    = "Region"
	ColSales     = "Sales"
	ColProfit    = "Profit"
	ColDiscount  = "Discount"
)

// RequiredColumns lists the columns every input file must carry.
var RequiredColumns = []string{ColOrderDate, ColCategory, ColCity, ColRegion, ColSales, ColProfit, ColDiscount}

// Order is one cleaned row of the input.
type Order struct {
	OrderDate time.Time `validate:"-"`
	DateValid bool      `validate:"-"`
	RawDate   string    `validate:"-"`
	Category  string    `validate:"required"`
	City      string    `validate:"required"`
	Region    string    `validate:"required"`
	Sales     float64   `validate:"finite"`
	Profit    float64   `validate:"finite"`
	Discount  float64   `validate:"finite"`
}

// Month returns the first day of the order's month. Only meaningful when DateValid.
func (o Order) Month() time.Time {
	return time.Date(o.OrderDate.Year(), o.OrderDate.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Dataset is the cleaned table plus the bookkeeping of what cleaning removed.
type Dataset struct {
	Path             string
	Columns          []string
	Orders           []Order
	RawRows          int
	DroppedNull      int
	DroppedDuplicate int
	InvalidDates     int
}

// Len returns the number of cleaned orders.
func (d *Dataset) Len() int { return len(d.Orders) }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func orderValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("finite", isFinite)
		validate = v
	})
	return validate
}

// isFinite rejects NaN and infinities that strconv happily parses from "nan"/"inf".
func isFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32 {
		return false
	}
	x := f.Float()
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
