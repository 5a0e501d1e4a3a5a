package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"ospanel/internal/models"
	"ospanel/internal/testutil"
	"ospanel/internal/websocket"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	return &Handler{Store: testutil.SetupStore(t), Hub: websocket.NewHub()}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *models.Meta    `json:"meta"`
	Error string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return env
}

func seed(t *testing.T, h *Handler, ops ...models.Order) {
	t.Helper()
	for i := range ops {
		if _, err := h.Store.Insert(&ops[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestCreateAndGet(t *testing.T) {
	h := newHandler(t)
	body := `{"operation":"Acme Corp","product":"Cabling Service","status":"Aberto","gross_value":100.5}`

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body))
	h.Create(w, r)
	if w.Code != 201 {
		t.Fatalf("Create status = %d, body %s", w.Code, w.Body.String())
	}
	var created models.Order
	json.Unmarshal(decode(t, w).Data, &created)
	if created.ID == 0 {
		t.Fatal("created order has no id")
	}

	w = httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/", nil), fmt.Sprint(created.ID))
	if w.Code != 200 {
		t.Fatalf("Get status = %d", w.Code)
	}
	var got models.Order
	json.Unmarshal(decode(t, w).Data, &got)
	if got.Operation != "Acme Corp" || got.GrossValue != 100.5 {
		t.Errorf("got %+v", got)
	}
}

func TestCreateDefaultsStatus(t *testing.T) {
	h := newHandler(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(`{"operation":"Acme","product":"Cabling"}`))
	h.Create(w, r)
	if w.Code != 201 {
		t.Fatalf("status = %d", w.Code)
	}
	var created models.Order
	json.Unmarshal(decode(t, w).Data, &created)
	if created.Status != models.StatusPending {
		t.Errorf("status = %q, want %q", created.Status, models.StatusPending)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHandler(t)
	tests := []string{
		`{"product":"Cabling"}`,                                           // missing operation
		`{"operation":"Acme","product":"Cabling","status":"Inventado"}`,   // bad enum
		`{"operation":"Acme","product":"Cabling","gross_value":-1}`,       // negative value
		`{"operation":"Acme","product":"Cabling","created_on":"15.03.24"}`, // bad date
		`not json`,
	}
	for _, body := range tests {
		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body)))
		if w.Code != 400 {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
	if n, _ := h.Store.Count(); n != 0 {
		t.Errorf("count = %d after rejected creates", n)
	}
}

func TestGetNotFound(t *testing.T) {
	h := newHandler(t)
	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/", nil), "99")
	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
	w = httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/", nil), "abc")
	if w.Code != 400 {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestUpdate(t *testing.T) {
	h := newHandler(t)
	seed(t, h, models.Order{Operation: "Acme", Product: "Cabling", Status: models.StatusOpen})
	all, _ := h.Store.All()
	id := all[0].ID

	body := `{"operation":"Acme","product":"Cabling","status":"Concluído"}`
	w := httptest.NewRecorder()
	h.Update(w, httptest.NewRequest("PUT", "/", strings.NewReader(body)), fmt.Sprint(id))
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	got, _ := h.Store.Get(id)
	if got.Status != models.StatusDone {
		t.Errorf("status = %q", got.Status)
	}

	w = httptest.NewRecorder()
	h.Update(w, httptest.NewRequest("PUT", "/", strings.NewReader(body)), "99")
	if w.Code != 404 {
		t.Errorf("absent id status = %d, want 404", w.Code)
	}
}

func TestDelete(t *testing.T) {
	h := newHandler(t)
	seed(t, h, models.Order{Operation: "Acme", Product: "Cabling"})
	all, _ := h.Store.All()

	w := httptest.NewRecorder()
	h.Delete(w, httptest.NewRequest("DELETE", "/", nil), fmt.Sprint(all[0].ID))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if n, _ := h.Store.Count(); n != 0 {
		t.Errorf("count = %d", n)
	}

	// Absent ids delete cleanly.
	w = httptest.NewRecorder()
	h.Delete(w, httptest.NewRequest("DELETE", "/", nil), "99")
	if w.Code != 200 {
		t.Errorf("absent id status = %d, want 200", w.Code)
	}
}

func TestListFiltersAndPagination(t *testing.T) {
	h := newHandler(t)
	d1, d2 := "2024-03-15", "2024-04-01"
	seed(t, h,
		models.Order{Operation: "Acme Corp", Product: "Cabling", Status: models.StatusDone, QuoteStatus: "Liberado", CreatedOn: &d1, IssuerName: "Maria"},
		models.Order{Operation: "Beta Ltda", Product: "Fiber Link", Status: models.StatusPending, QuoteStatus: "Aprovado", CreatedOn: &d2},
		models.Order{Operation: "Gama SA", Product: "Fiber Link", Status: models.StatusPending, QuoteStatus: "Liberado"},
	)

	list := func(query string) ([]models.Order, *models.Meta) {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest("GET", "/api/v1/orders"+query, nil))
		if w.Code != 200 {
			t.Fatalf("List%s status = %d", query, w.Code)
		}
		env := decode(t, w)
		var out []models.Order
		json.Unmarshal(env.Data, &out)
		return out, env.Meta
	}

	if got, meta := list(""); len(got) != 3 || meta.Total != 3 {
		t.Errorf("unfiltered: %d rows, total %d", len(got), meta.Total)
	}
	if got, _ := list("?status=Pendente"); len(got) != 2 {
		t.Errorf("status filter: %d rows, want 2", len(got))
	}
	if got, _ := list("?status=Pendente,Concluído"); len(got) != 3 {
		t.Errorf("multi status filter: %d rows, want 3", len(got))
	}
	if got, _ := list("?quote_status=Liberado&status=Pendente"); len(got) != 1 {
		t.Errorf("combined filter: %d rows, want 1", len(got))
	}
	if got, _ := list("?product=fiber"); len(got) != 2 {
		t.Errorf("product substring filter: %d rows, want 2", len(got))
	}
	if got, _ := list("?q=maria"); len(got) != 1 {
		t.Errorf("free text filter: %d rows, want 1", len(got))
	}
	if got, _ := list("?date_from=2024-03-01&date_to=2024-03-31"); len(got) != 1 {
		t.Errorf("date filter: %d rows, want 1 (dateless excluded)", len(got))
	}
	got, meta := list("?page=2&limit=2")
	if len(got) != 1 || meta.Total != 3 || meta.Page != 2 {
		t.Errorf("pagination: %d rows, meta %+v", len(got), meta)
	}
}

func TestExportCSV(t *testing.T) {
	h := newHandler(t)
	d1 := "2024-03-15"
	seed(t, h, models.Order{Operation: "Acme", Product: "Cabling", Status: models.StatusDone, QuoteStatus: "Liberado", GrossValue: 1234.5, CreatedOn: &d1, IssuerName: "Maria"})

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest("GET", "/api/v1/orders/export", nil))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Operação,Produto,Status") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "1234.50") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestExportXLSX(t *testing.T) {
	h := newHandler(t)
	seed(t, h, models.Order{Operation: "Acme", Product: "Cabling", Status: models.StatusDone})

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest("GET", "/api/v1/orders/export?format=xlsx", nil))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip archive")
	}
}

func TestExportHonorsFilters(t *testing.T) {
	h := newHandler(t)
	seed(t, h,
		models.Order{Operation: "Acme", Product: "Cabling", Status: models.StatusDone},
		models.Order{Operation: "Beta", Product: "Fiber", Status: models.StatusPending},
	)

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest("GET", "/api/v1/orders/export?status=Concluído", nil))
	body := w.Body.String()
	if !strings.Contains(body, "Acme") || strings.Contains(body, "Beta") {
		t.Errorf("filtered export = %q", body)
	}
}
