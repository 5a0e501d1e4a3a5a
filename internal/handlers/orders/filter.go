package orders

import (
	"net/http"
	"strings"

	"ospanel/internal/models"
)

// Filters narrow an order listing. Status filters accept several values
// (comma-separated); text filters are case-insensitive substring matches;
// date bounds compare against created_on inclusively.
type Filters struct {
	Statuses      []string
	QuoteStatuses []string
	Product       string
	Query         string
	DateFrom      string
	DateTo        string
}

func splitValues(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseFilters reads the supported filter query params.
func ParseFilters(r *http.Request) Filters {
	q := r.URL.Query()
	return Filters{
		Statuses:      splitValues(q.Get("status")),
		QuoteStatuses: splitValues(q.Get("quote_status")),
		Product:       strings.TrimSpace(q.Get("product")),
		Query:         strings.TrimSpace(q.Get("q")),
		DateFrom:      strings.TrimSpace(q.Get("date_from")),
		DateTo:        strings.TrimSpace(q.Get("date_to")),
	}
}

func inSet(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (f Filters) match(o models.Order) bool {
	if len(f.Statuses) > 0 && !inSet(o.Status, f.Statuses) {
		return false
	}
	if len(f.QuoteStatuses) > 0 && !inSet(o.QuoteStatus, f.QuoteStatuses) {
		return false
	}
	if f.Product != "" && !containsFold(o.Product, f.Product) {
		return false
	}
	if f.DateFrom != "" || f.DateTo != "" {
		if o.CreatedOn == nil {
			return false
		}
		if f.DateFrom != "" && *o.CreatedOn < f.DateFrom {
			return false
		}
		if f.DateTo != "" && *o.CreatedOn > f.DateTo {
			return false
		}
	}
	if f.Query != "" {
		hit := containsFold(o.Operation, f.Query) ||
			containsFold(o.Product, f.Query) ||
			containsFold(o.IssuerName, f.Query) ||
			containsFold(o.AccountManager, f.Query) ||
			containsFold(o.QuoteNumber, f.Query) ||
			containsFold(o.OpportunityNumber, f.Query)
		if !hit {
			return false
		}
	}
	return true
}

// Apply returns the orders passing every set filter, preserving order.
func (f Filters) Apply(all []models.Order) []models.Order {
	out := make([]models.Order, 0, len(all))
	for _, o := range all {
		if f.match(o) {
			out = append(out, o)
		}
	}
	return out
}
