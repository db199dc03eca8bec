// Package httpx provides JSON response helpers for the API envelope.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/backline-erp/backline/internal/shared"
)

// Envelope is the response shape shared by every endpoint.
type Envelope struct {
	Success    bool        `json:"success"`
	Count      *int        `json:"count,omitempty"`
	TotalCount *int        `json:"totalCount,omitempty"`
	Pagination *PageMeta   `json:"pagination,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// PageMeta mirrors shared.Pagination in the wire format.
type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK responds 200 with a data payload.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created responds 201 with a data payload.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// List responds 200 with a page of results and pagination metadata.
func List(w http.ResponseWriter, data interface{}, count int, p shared.Pagination) {
	total := p.Total
	JSON(w, http.StatusOK, Envelope{
		Success:    true,
		Count:      &count,
		TotalCount: &total,
		Pagination: &PageMeta{Page: p.Page, Limit: p.Limit, TotalPages: p.TotalPages},
		Data:       data,
	})
}

// Message responds 200 with a human-readable confirmation.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: msg})
}

// DecodeJSON decodes the request body into target.
func DecodeJSON(r *http.Request, target interface{}) error {
	return json.NewDecoder(r.Body).Decode(target)
}
