package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/streamsavvy/internal/shared"
)

// CreateHook inspects or amends a record before it is inserted, seeing the collection's current records.
// It runs under the database lock. A returned [APIError] is sent as-is.
type CreateHook func(existing []Record, rec Record) error

// APIError is an error with the status and body the client should see.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// CollectionHandler serves REST routes for one collection under /api.
type CollectionHandler struct {
	db       *JSONDB
	name     string
	onCreate CreateHook
}

// NewCollectionHandler creates a handler for collection name.
func NewCollectionHandler(db *JSONDB, name string, onCreate CreateHook) *CollectionHandler {
	return &CollectionHandler{db: db, name: name, onCreate: onCreate}
}

func (h *CollectionHandler) base() string { return "/api/" + h.name }

// Routes implements [Handler].
func (h *CollectionHandler) Routes() []string {
	base, item := h.base(), h.base()+"/{id}"
	return []string{
		"GET " + base,
		"POST " + base,
		"GET " + item,
		"PUT " + item,
		"PATCH " + item,
		"DELETE " + item,
	}
}

// ServeHTTP implements [http.Handler].
func (h *CollectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case id == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case r.Method == http.MethodGet:
		h.get(w, id)
	case r.Method == http.MethodPut, r.Method == http.MethodPatch:
		h.replace(w, r, id, r.Method == http.MethodPatch)
	case r.Method == http.MethodDelete:
		h.delete(w, id)
	default:
		writeError(w, &APIError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"})
	}
}

func (h *CollectionHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := map[string]string{}
	for k, v := range r.URL.Query() {
		if strings.HasPrefix(k, "_") || len(v) == 0 {
			continue
		}
		filter[k] = v[0]
	}
	writeJSON(w, http.StatusOK, h.db.List(h.name, filter))
}

func (h *CollectionHandler) get(w http.ResponseWriter, id string) {
	rec, err := h.db.Get(h.name, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *CollectionHandler) create(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.db.Insert(h.name, rec, h.onCreate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CollectionHandler) replace(w http.ResponseWriter, r *http.Request, id string, merge bool) {
	rec, err := decodeRecord(r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.db.Replace(h.name, id, rec, merge)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CollectionHandler) delete(w http.ResponseWriter, id string) {
	if err := h.db.Delete(h.name, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Record{})
}

// RejectDuplicateEmail refuses a user whose email is already registered and fills the defaults new users get.
func RejectDuplicateEmail(existing []Record, rec Record) error {
	email, _ := rec["email"].(string)
	if email != "" && slices.ContainsFunc(existing, func(u Record) bool { return u["email"] == email }) {
		return &APIError{Status: http.StatusBadRequest, Message: "Email already in use"}
	}

	rec["createdAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	rec["hasCompletedPayment"] = false
	return nil
}

func decodeRecord(r *http.Request) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		return nil, &APIError{Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	if rec == nil {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "body must be a JSON object"}
	}
	return rec, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, shared.ErrNotFound):
		apiErr = &APIError{Status: http.StatusNotFound, Message: "Not Found"}
	case errors.Is(err, shared.ErrInvalidInput):
		apiErr = &APIError{Status: http.StatusBadRequest, Message: err.Error()}
	default:
		apiErr = &APIError{Status: http.StatusInternalServerError, Message: "Something went wrong!"}
	}
	writeJSON(w, apiErr.Status, map[string]any{"error": apiErr.Message, "status": apiErr.Status})
}
