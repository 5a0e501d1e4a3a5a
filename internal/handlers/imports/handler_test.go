package imports

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"ospanel/internal/ingest"
	"ospanel/internal/models"
	"ospanel/internal/testutil"
	"ospanel/internal/websocket"
)

var panelHeaders = []string{"Descrição d/operação", "Denominação produto", "Criado em", "Status"}

func newHandler(t *testing.T) *Handler {
	t.Helper()
	return &Handler{
		Store:    testutil.SetupStore(t),
		Hub:      websocket.NewHub(),
		Defaults: ingest.DetailedImportPolicy(),
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
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

func upload(t *testing.T, h *Handler, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := testutil.MultipartFile(t, filename, content, fields)
	r := httptest.NewRequest("POST", "/api/v1/import", body)
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.Upload(w, r)
	return w
}

func TestUploadXLSX(t *testing.T) {
	h := newHandler(t)
	raw := testutil.XLSX(t, panelHeaders, [][]string{
		{"Acme Corp", "Cabling Service", "15.03.2024", "Concluído"},
		{"Beta Ltda", "Fiber Link", "16.03.2024", "pendente"},
	})

	w := upload(t, h, "carga.xlsx", raw, nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res ingest.Result
	json.Unmarshal(decode(t, w).Data, &res)
	if !res.Success || res.Imported != 2 {
		t.Fatalf("result = %+v", res)
	}

	all, _ := h.Store.All()
	if len(all) != 2 {
		t.Fatalf("stored %d orders", len(all))
	}
	for _, o := range all {
		if o.Status != models.StatusDone && o.Status != models.StatusPending {
			t.Errorf("status %q not normalized", o.Status)
		}
	}
}

func TestUploadCSVAppendMode(t *testing.T) {
	h := newHandler(t)
	if _, err := h.Store.Insert(&models.Order{Operation: "Old", Product: "Legacy"}); err != nil {
		t.Fatal(err)
	}

	raw := testutil.CSV(t, panelHeaders, [][]string{{"Acme", "Cabling", "", ""}})
	w := upload(t, h, "carga.csv", raw, map[string]string{"mode": "append"})
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if n, _ := h.Store.Count(); n != 2 {
		t.Errorf("count = %d, want existing row kept", n)
	}
}

func TestUploadReplaceModeWipes(t *testing.T) {
	h := newHandler(t)
	h.Store.Insert(&models.Order{Operation: "Old", Product: "Legacy"})

	raw := testutil.CSV(t, panelHeaders, [][]string{{"Acme", "Cabling", "", ""}})
	w := upload(t, h, "carga.csv", raw, map[string]string{"mode": "replace"})
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	all, _ := h.Store.All()
	if len(all) != 1 || all[0].Operation != "Acme" {
		t.Errorf("orders = %+v", all)
	}
}

func TestUploadDedupeOverride(t *testing.T) {
	h := newHandler(t)
	raw := testutil.CSV(t, panelHeaders, [][]string{
		{"Acme", "Cabling", "", ""},
		{"Acme", "Cabling", "", ""},
	})
	w := upload(t, h, "carga.csv", raw, map[string]string{"mode": "append", "dedupe": "true"})
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	var res ingest.Result
	json.Unmarshal(decode(t, w).Data, &res)
	if res.Imported != 1 || res.SkippedDuplicate != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestUploadRejectsBadMode(t *testing.T) {
	h := newHandler(t)
	raw := testutil.CSV(t, panelHeaders, [][]string{{"Acme", "Cabling", "", ""}})
	w := upload(t, h, "carga.csv", raw, map[string]string{"mode": "upsert"})
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadRejectsUnreadableFile(t *testing.T) {
	h := newHandler(t)
	w := upload(t, h, "carga.xls", []byte("legacy binary"), nil)
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadIncompleteMapping(t *testing.T) {
	h := newHandler(t)
	raw := testutil.CSV(t, []string{"Coluna A", "Coluna B"}, [][]string{{"x", "y"}})
	w := upload(t, h, "carga.csv", raw, nil)
	if w.Code != 422 {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	env := decode(t, w)
	if !strings.Contains(env.Error, "operation") || !strings.Contains(env.Error, "product") {
		t.Errorf("error = %q", env.Error)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	h := newHandler(t)
	r := httptest.NewRequest("POST", "/api/v1/import", strings.NewReader("plain"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	w := httptest.NewRecorder()
	h.Upload(w, r)
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPreviewDoesNotWrite(t *testing.T) {
	h := newHandler(t)
	raw := testutil.XLSX(t, panelHeaders, [][]string{{"Acme", "Cabling", "15.03.2024", "Concluído"}})

	body, ct := testutil.MultipartFile(t, "carga.xlsx", raw, nil)
	r := httptest.NewRequest("POST", "/api/v1/import/preview", body)
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h.Preview(w, r)
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res ingest.PreviewResult
	json.Unmarshal(decode(t, w).Data, &res)
	if res.TotalRows != 1 || len(res.Sample) != 1 {
		t.Errorf("preview = %+v", res)
	}
	if n, _ := h.Store.Count(); n != 0 {
		t.Errorf("count = %d, preview must not write", n)
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	h := newHandler(t)
	h.Store.Insert(&models.Order{Operation: "Acme", Product: "Cabling"})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.Clear(w, httptest.NewRequest("POST", "/api/v1/orders/clear", strings.NewReader(body)))
		return w
	}

	if w := post(`{}`); w.Code != 400 {
		t.Errorf("no phrase: status = %d, want 400", w.Code)
	}
	if w := post(`{"confirm":"sim"}`); w.Code != 400 {
		t.Errorf("wrong phrase: status = %d, want 400", w.Code)
	}
	if n, _ := h.Store.Count(); n != 1 {
		t.Fatalf("data touched by rejected clear")
	}

	w := post(`{"confirm":"apagar tudo"}`)
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res map[string]int64
	json.Unmarshal(decode(t, w).Data, &res)
	if res["removed"] != 1 {
		t.Errorf("removed = %d, want 1", res["removed"])
	}
	if n, _ := h.Store.Count(); n != 0 {
		t.Errorf("count = %d after clear", n)
	}
}
