// Package common holds the JSON envelope helpers shared by the API
// handler packages.
package common

import (
	"encoding/json"
	"net/http"

	"ospanel/internal/models"
)

// JSON writes data inside the standard response envelope.
func JSON(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

// JSONMeta writes data with pagination metadata.
func JSONMeta(w http.ResponseWriter, data interface{}, total, page, limit int) {
	json.NewEncoder(w).Encode(models.APIResponse{Data: data, Meta: &models.Meta{Total: total, Page: page, Limit: limit}})
}

// Err writes an error message with the given status code.
func Err(w http.ResponseWriter, msg string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// DecodeBody decodes a JSON request body into v.
func DecodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
