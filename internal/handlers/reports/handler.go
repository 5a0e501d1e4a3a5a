// Package reports serves the dashboard and aggregate report endpoints.
package reports

import (
	"net/http"
	"time"

	"ospanel/internal/handlers/common"
	"ospanel/internal/report"
	"ospanel/internal/store"
)

// Handler holds dependencies for report handlers.
type Handler struct {
	Store *store.Store
}

// Dashboard returns the headline metrics and the chart series the main
// page renders in one payload.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.All()
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	common.JSON(w, map[string]interface{}{
		"totals":          report.Summarize(orders),
		"by_status":       report.StatusCounts(orders),
		"by_month":        report.MonthlyCounts(orders),
		"by_quote_status": report.ValueByQuoteStatus(orders),
		"top_clients":     report.TopClients(orders, 10),
		"top_products":    report.TopProducts(orders, 10),
	})
}

// ByPeriod aggregates orders created inside [from, to], both YYYY-MM-DD.
// Missing bounds default to the last 30 days.
func (h *Handler) ByPeriod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			common.Err(w, "from must be YYYY-MM-DD", 400)
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			common.Err(w, "to must be YYYY-MM-DD", 400)
			return
		}
		to = t
	}
	if to.Before(from) {
		common.Err(w, "to must not precede from", 400)
		return
	}

	orders, err := h.Store.All()
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	common.JSON(w, report.ByPeriod(orders, from, to))
}

// Performance groups value and counts by status and quote status.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.All()
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	common.JSON(w, map[string]interface{}{
		"by_status_pair":  report.Performance(orders),
		"by_quote_status": report.ValueByQuoteStatus(orders),
	})
}
