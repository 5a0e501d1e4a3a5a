// Package imports implements the spreadsheet upload, preview and clear
// endpoints that feed the order table.
package imports

import (
	"errors"
	"log"
	"net/http"

	"ospanel/internal/handlers/common"
	"ospanel/internal/ingest"
	"ospanel/internal/store"
	"ospanel/internal/websocket"
)

// maxUploadBytes caps spreadsheet uploads at 32MB.
const maxUploadBytes = 32 << 20

// clearConfirmPhrase must be echoed back by the client before the whole
// order table is wiped.
const clearConfirmPhrase = "apagar tudo"

// Handler holds dependencies for import handlers.
type Handler struct {
	Store    *store.Store
	Hub      *websocket.Hub
	Defaults ingest.Policy
}

// policyFor applies per-request overrides (mode, dedupe) on the defaults.
func (h *Handler) policyFor(r *http.Request) (ingest.Policy, error) {
	p := h.Defaults
	switch r.FormValue("mode") {
	case "":
	case "replace":
		p.Mode = ingest.Replace
	case "append":
		p.Mode = ingest.Append
	default:
		return p, errors.New("mode must be replace or append")
	}
	switch r.FormValue("dedupe") {
	case "":
	case "true", "1":
		p.Dedupe = true
	case "false", "0":
		p.Dedupe = false
	default:
		return p, errors.New("dedupe must be true or false")
	}
	return p, nil
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*ingest.Table, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.Err(w, "invalid multipart body", 400)
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		common.Err(w, "file field is required", 400)
		return nil, false
	}
	defer file.Close()

	tbl, err := ingest.ReadTable(header.Filename, file)
	if err != nil {
		common.Err(w, err.Error(), 400)
		return nil, false
	}
	return tbl, true
}

// Upload ingests an uploaded spreadsheet. The request context cancels a
// running import; replace mode then rolls back, append commits the rows
// already processed.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policyFor(r)
	if err != nil {
		common.Err(w, err.Error(), 400)
		return
	}
	tbl, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	pipe := &ingest.Pipeline{
		Store:  h.Store,
		Policy: policy,
		OnProgress: func(p ingest.Progress) {
			h.Hub.BroadcastProgress(p.Processed, p.Total)
		},
	}
	res, err := pipe.Run(r.Context(), tbl)

	var incomplete *ingest.IncompleteMappingError
	switch {
	case errors.As(err, &incomplete):
		common.Err(w, incomplete.Error(), 422)
		return
	case res != nil && err != nil:
		// Cancelled append run; the partial batch is committed.
		log.Printf("import: cancelled after %d rows: %v", res.Imported, err)
	case err != nil:
		log.Printf("import: failed: %v", err)
		common.Err(w, err.Error(), 500)
		return
	}

	h.Hub.BroadcastChange("order", "import", nil)
	common.JSON(w, res)
}

// Preview maps and normalizes an uploaded spreadsheet without writing.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policyFor(r)
	if err != nil {
		common.Err(w, err.Error(), 400)
		return
	}
	tbl, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	pipe := &ingest.Pipeline{Store: h.Store, Policy: policy}
	common.JSON(w, pipe.Preview(tbl, 10))
}

type clearRequest struct {
	Confirm string `json:"confirm"`
}

// Clear wipes the order table. The body must carry the exact
// confirmation phrase; anything else is rejected without touching data.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := common.DecodeBody(r, &req); err != nil {
		common.Err(w, "invalid body", 400)
		return
	}
	if req.Confirm != clearConfirmPhrase {
		common.Err(w, "confirmation phrase mismatch; send {\"confirm\": \""+clearConfirmPhrase+"\"}", 400)
		return
	}
	removed, err := h.Store.Clear()
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	log.Printf("import: cleared %d orders", removed)
	h.Hub.BroadcastChange("order", "clear", nil)
	common.JSON(w, map[string]int64{"removed": removed})
}
