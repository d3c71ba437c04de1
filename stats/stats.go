// Package stats reduces order history into per-day sales points and
// period summaries for the admin dashboard.
package stats

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Sale is the slice of an order that statistics care about.
type Sale struct {
	Total     float64
	CreatedAt time.Time
}

// Point is revenue and order count for one calendar day.
type Point struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Total  float64 `json:"total"`
	Orders int     `json:"orders"`
}

// Summary are period-wide totals.
type Summary struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalOrders  int     `json:"totalOrders"`
	AverageCheck float64 `json:"averageCheck"`
}

// Range is an inclusive date range.
type Range struct {
	From time.Time
	To   time.Time
}

const dayFormat = "2006-01-02"

// Day normalizes a timestamp to its YYYY-MM-DD date in UTC.
func Day(t time.Time) string {
	return t.UTC().Format(dayFormat)
}

// GroupByDay buckets sales per calendar day, sorted ascending by date.
func GroupByDay(sales []Sale) []Point {
	type bucket struct {
		total  decimal.Decimal
		orders int
	}
	buckets := map[string]*bucket{}
	for _, s := range sales {
		day := Day(s.CreatedAt)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.total = b.total.Add(decimal.NewFromFloat(s.Total))
		b.orders++
	}

	points := make([]Point, 0, len(buckets))
	for day, b := range buckets {
		total, _ := b.total.Float64()
		points = append(points, Point{Date: day, Total: total, Orders: b.orders})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// Summarize computes revenue, order count and the average check rounded
// to the nearest whole amount.
func Summarize(sales []Sale) Summary {
	revenue := decimal.Zero
	for _, s := range sales {
		revenue = revenue.Add(decimal.NewFromFloat(s.Total))
	}
	total, _ := revenue.Float64()
	sum := Summary{TotalRevenue: total, TotalOrders: len(sales)}
	if len(sales) > 0 {
		avg, _ := revenue.Div(decimal.NewFromInt(int64(len(sales)))).Round(0).Float64()
		sum.AverageCheck = avg
	}
	return sum
}

// PeriodRange resolves a named period into a concrete date range ending
// today. The custom period requires an explicit range.
func PeriodRange(period string, now time.Time, custom *Range) (Range, error) {
	from := now
	switch period {
	case "day":
		// today only
	case "week":
		from = now.AddDate(0, 0, -7)
	case "month", "":
		from = now.AddDate(0, -1, 0)
	case "year":
		from = now.AddDate(-1, 0, 0)
	case "custom":
		if custom == nil {
			return Range{}, errors.New("custom period requires from/to")
		}
		return *custom, nil
	default:
		return Range{}, errors.Errorf("unknown period %q", period)
	}
	return Range{From: startOfDay(from), To: endOfDay(now)}, nil
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bad date %q", s)
	}
	return t, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
