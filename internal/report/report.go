// Package report computes the read-only aggregate views the dashboard and
// report pages render. All functions are pure over a scanned order slice.
package report

import (
	"sort"
	"time"

	"ospanel/internal/models"
)

// StatusCount is the number of orders carrying one status label.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// StatusCounts groups orders by status, most frequent first.
func StatusCounts(orders []models.Order) []StatusCount {
	counts := map[string]int{}
	for _, o := range orders {
		counts[o.Status]++
	}
	out := make([]StatusCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, StatusCount{Status: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// QuoteStatusValue aggregates gross value per quote status.
type QuoteStatusValue struct {
	QuoteStatus string  `json:"quote_status"`
	Count       int     `json:"count"`
	Total       float64 `json:"total"`
	Mean        float64 `json:"mean"`
}

// ValueByQuoteStatus groups orders by quote status with sum and mean of
// gross value, highest total first.
func ValueByQuoteStatus(orders []models.Order) []QuoteStatusValue {
	byStatus := map[string]*QuoteStatusValue{}
	for _, o := range orders {
		v, ok := byStatus[o.QuoteStatus]
		if !ok {
			v = &QuoteStatusValue{QuoteStatus: o.QuoteStatus}
			byStatus[o.QuoteStatus] = v
		}
		v.Count++
		v.Total += o.GrossValue
	}
	out := make([]QuoteStatusValue, 0, len(byStatus))
	for _, v := range byStatus {
		if v.Count > 0 {
			v.Mean = v.Total / float64(v.Count)
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].QuoteStatus < out[j].QuoteStatus
	})
	return out
}

// MonthCount is the number of orders created in one YYYY-MM bucket.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthlyCounts buckets orders by creation month, ascending. Orders without
// a creation date are left out.
func MonthlyCounts(orders []models.Order) []MonthCount {
	counts := map[string]int{}
	for _, o := range orders {
		if o.CreatedOn == nil || len(*o.CreatedOn) < 7 {
			continue
		}
		counts[(*o.CreatedOn)[:7]]++
	}
	out := make([]MonthCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, MonthCount{Month: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// NameCount is one ranked name with its occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func topBy(orders []models.Order, n int, key func(models.Order) string) []NameCount {
	counts := map[string]int{}
	for _, o := range orders {
		if k := key(o); k != "" {
			counts[k]++
		}
	}
	out := make([]NameCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, NameCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TopClients ranks issuer names (falling back to the operation descriptor)
// by order count.
func TopClients(orders []models.Order, n int) []NameCount {
	return topBy(orders, n, func(o models.Order) string {
		if o.IssuerName != "" {
			return o.IssuerName
		}
		return o.Operation
	})
}

// TopProducts ranks product descriptions by order count.
func TopProducts(orders []models.Order, n int) []NameCount {
	return topBy(orders, n, func(o models.Order) string { return o.Product })
}

// Totals are the headline dashboard metrics.
type Totals struct {
	Orders     int     `json:"orders"`
	Completed  int     `json:"completed"`
	Pending    int     `json:"pending"`
	GrossTotal float64 `json:"gross_total"`
	LastImport string  `json:"last_import"`
}

// Summarize computes the headline metrics over all orders.
func Summarize(orders []models.Order) Totals {
	var t Totals
	t.Orders = len(orders)
	for _, o := range orders {
		switch o.Status {
		case models.StatusDone:
			t.Completed++
		case models.StatusPending:
			t.Pending++
		}
		t.GrossTotal += o.GrossValue
		if o.ImportedAt > t.LastImport {
			t.LastImport = o.ImportedAt
		}
	}
	return t
}

// DayCount is per-day order count and gross value within a period.
type DayCount struct {
	Day   string  `json:"day"`
	Count int     `json:"count"`
	Gross float64 `json:"gross"`
}

// PeriodSummary aggregates the orders created inside a date range.
type PeriodSummary struct {
	Orders     int        `json:"orders"`
	GrossTotal float64    `json:"gross_total"`
	MeanValue  float64    `json:"mean_value"`
	Daily      []DayCount `json:"daily"`
}

// ByPeriod filters orders to created-on dates within [from, to] inclusive
// and aggregates them. Orders without a creation date are excluded.
func ByPeriod(orders []models.Order, from, to time.Time) PeriodSummary {
	fromStr := from.Format("2006-01-02")
	toStr := to.Format("2006-01-02")

	var sum PeriodSummary
	daily := map[string]*DayCount{}
	for _, o := range orders {
		if o.CreatedOn == nil {
			continue
		}
		day := *o.CreatedOn
		if day < fromStr || day > toStr {
			continue
		}
		sum.Orders++
		sum.GrossTotal += o.GrossValue
		d, ok := daily[day]
		if !ok {
			d = &DayCount{Day: day}
			daily[day] = d
		}
		d.Count++
		d.Gross += o.GrossValue
	}
	if sum.Orders > 0 {
		sum.MeanValue = sum.GrossTotal / float64(sum.Orders)
	}
	sum.Daily = make([]DayCount, 0, len(daily))
	for _, d := range daily {
		sum.Daily = append(sum.Daily, *d)
	}
	sort.Slice(sum.Daily, func(i, j int) bool { return sum.Daily[i].Day < sum.Daily[j].Day })
	return sum
}

// PerformanceRow is one (status, quote status) pair with count, sum and
// mean of gross value.
type PerformanceRow struct {
	Status      string  `json:"status"`
	QuoteStatus string  `json:"quote_status"`
	Count       int     `json:"count"`
	Total       float64 `json:"total"`
	Mean        float64 `json:"mean"`
}

// Performance groups orders by (status, quote status), ordered by status
// then quote status.
func Performance(orders []models.Order) []PerformanceRow {
	type key struct{ status, quote string }
	rows := map[key]*PerformanceRow{}
	for _, o := range orders {
		k := key{o.Status, o.QuoteStatus}
		r, ok := rows[k]
		if !ok {
			r = &PerformanceRow{Status: o.Status, QuoteStatus: o.QuoteStatus}
			rows[k] = r
		}
		r.Count++
		r.Total += o.GrossValue
	}
	out := make([]PerformanceRow, 0, len(rows))
	for _, r := range rows {
		if r.Count > 0 {
			r.Mean = r.Total / float64(r.Count)
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].QuoteStatus < out[j].QuoteStatus
	})
	return out
}
