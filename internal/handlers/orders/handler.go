// Package orders implements the service order CRUD and export endpoints.
package orders

import (
	"errors"
	"net/http"
	"strconv"

	"ospanel/internal/handlers/common"
	"ospanel/internal/models"
	"ospanel/internal/store"
	"ospanel/internal/validation"
	"ospanel/internal/websocket"
)

// Handler holds dependencies for order handlers.
type Handler struct {
	Store *store.Store
	Hub   *websocket.Hub
}

// List returns orders matching the request filters, newest first,
// paginated with page/limit query params.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.All()
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	filtered := ParseFilters(r).Apply(all)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	common.JSONMeta(w, filtered[start:end], total, page, limit)
}

// Get returns one order by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		common.Err(w, "invalid id", 400)
		return
	}
	o, err := h.Store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		common.Err(w, "order not found", 404)
		return
	}
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	common.JSON(w, o)
}

// Create inserts a new order submitted as JSON.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var o models.Order
	if err := common.DecodeBody(r, &o); err != nil {
		common.Err(w, "invalid body", 400)
		return
	}
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	if ve := validation.ValidateOrder(&o); ve != nil {
		common.Err(w, ve.Error(), 400)
		return
	}
	id, err := h.Store.Insert(&o)
	if errors.Is(err, store.ErrConstraint) {
		common.Err(w, err.Error(), 400)
		return
	}
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	o.ID = id
	h.Hub.BroadcastChange("order", "create", id)
	w.WriteHeader(201)
	common.JSON(w, o)
}

// Update replaces an existing order.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		common.Err(w, "invalid id", 400)
		return
	}
	var o models.Order
	if err := common.DecodeBody(r, &o); err != nil {
		common.Err(w, "invalid body", 400)
		return
	}
	o.ID = id
	if ve := validation.ValidateOrder(&o); ve != nil {
		common.Err(w, ve.Error(), 400)
		return
	}
	err = h.Store.Update(id, &o)
	if errors.Is(err, store.ErrNotFound) {
		common.Err(w, "order not found", 404)
		return
	}
	if errors.Is(err, store.ErrConstraint) {
		common.Err(w, err.Error(), 400)
		return
	}
	if err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	h.Hub.BroadcastChange("order", "update", id)
	common.JSON(w, o)
}

// Delete removes an order. Deleting an absent id succeeds.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		common.Err(w, "invalid id", 400)
		return
	}
	if err := h.Store.Delete(id); err != nil {
		common.Err(w, err.Error(), 500)
		return
	}
	h.Hub.BroadcastChange("order", "delete", id)
	common.JSON(w, map[string]bool{"deleted": true})
}
