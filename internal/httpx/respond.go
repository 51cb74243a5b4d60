package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var (
	errBadJSON         = errors.New("invalid json body")
	errRequestInFlight = errors.New("a request with this idempotency key is still running")
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func created(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Message: msg, Data: data})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}

var notFound = []error{
	orders.ErrNotFound,
	orders.ErrItemNotFound,
	catalog.ErrNotFound,
	catalog.ErrCategoryNotFound,
	inventory.ErrNotFound,
	tables.ErrNotFound,
	tables.ErrReservationNotFound,
	reports.ErrSnapshotNotFound,
}

// inUse blocks deleting rows that other records still point at.
var inUse = []error{
	catalog.ErrInUse,
	inventory.ErrInUse,
	tables.ErrInUse,
}

var businessRule = []error{
	errBadJSON,
	orders.ErrInvalidTransition,
	orders.ErrNotEditable,
	orders.ErrAlreadyPaid,
	orders.ErrNotPayable,
	orders.ErrTableReserved,
	inventory.ErrInsufficientStock,
	catalog.ErrUnavailable,
	tables.ErrOverCapacity,
	tables.ErrAlreadyBooked,
	tables.ErrAlreadyCancelled,
}

// duplicates surface as a field error on the unique column.
var duplicates = map[error]string{
	catalog.ErrDuplicateName:   "name",
	inventory.ErrDuplicateName: "name",
	tables.ErrDuplicateNumber:  "number",
}

func matchAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeError is the only place errors become status codes.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := validation.Fields(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, Envelope{Message: "validation failed", Errors: fields})
		return
	}
	for dup, field := range duplicates {
		if errors.Is(err, dup) {
			writeJSON(w, http.StatusUnprocessableEntity, Envelope{
				Message: "validation failed",
				Errors:  map[string]string{field: dup.Error()},
			})
			return
		}
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, errRequestInFlight), matchAny(err, inUse):
		code = http.StatusConflict
	case matchAny(err, notFound):
		code = http.StatusNotFound
	case matchAny(err, businessRule):
		code = http.StatusBadRequest
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		if !s.dev {
			msg = "internal server error"
		}
	}
	writeJSON(w, code, Envelope{Message: msg})
}

func validationErr(field, msg string) error {
	return validation.Errors{field: msg}
}
