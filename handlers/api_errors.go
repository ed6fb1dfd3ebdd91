package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/media"
)

// APIError is an error with a known HTTP status. Message goes to the
// "error" field of the response, Detail (optional) to "message".
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// APIErrorResponse is the body of every error response.
type APIErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func errBadRequest(msg string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: msg}
}

func errNotFound(resource string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: resource + " not found"}
}

func errConflict(msg string) *APIError {
	return &APIError{Status: http.StatusConflict, Message: msg}
}

func errUnauthorized() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

func errUnavailable(msg string) *APIError {
	return &APIError{Status: http.StatusServiceUnavailable, Message: msg}
}

var errRouteNotFound = &APIError{Status: http.StatusNotFound, Message: "Not found"}

// storeError maps storage-layer sentinels onto API errors for resource.
func storeError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, media.ErrNotFound):
		return errNotFound(resource)
	case errors.Is(err, database.ErrInvalidValue):
		return &APIError{Status: http.StatusBadRequest, Message: "Invalid value", Detail: err.Error()}
	case errors.Is(err, database.ErrDuplicate):
		return errConflict(resource + " with this slug already exists")
	default:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteAPIError writes the error envelope with the given status.
func WriteAPIError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, APIErrorResponse{Error: msg, Message: detail})
}

type apiFunc func(w http.ResponseWriter, r *http.Request) error

// errorRenderer turns handler errors into responses. Errors that are not
// APIErrors become a 500; their text is only returned when exposeDetails is set.
type errorRenderer struct {
	log           *logging.Logger
	exposeDetails bool
}

func (er errorRenderer) handle(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			er.render(w, r, err)
		}
	}
}

func (er errorRenderer) render(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= http.StatusInternalServerError {
			er.log.Error(r.Context(), apiErr.Message, err)
		}
		WriteAPIError(w, apiErr.Status, apiErr.Message, apiErr.Detail)
		return
	}

	er.log.Error(r.Context(), "request failed", err)
	detail := ""
	if er.exposeDetails {
		detail = err.Error()
	}
	WriteAPIError(w, http.StatusInternalServerError, "Internal server error", detail)
}
