package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxJSONBodyBytes = 1 << 20

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// validSlug reports whether slug can be used as a lookup key in a URL path.
func validSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// decodeBody unmarshals the JSON body into dst and also returns it as a
// generic map, which is where "{field}_{lang}" translation keys are read from.
func decodeBody(r *http.Request, dst any) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBodyBytes+1))
	if err != nil {
		return nil, errBadRequest("Invalid request body")
	}
	if len(raw) > maxJSONBodyBytes {
		return nil, &APIError{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errBadRequest("Invalid request body")
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "Invalid request body", Detail: err.Error()}
	}
	if dst != nil {
		if err := json.Unmarshal(raw, dst); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, &APIError{Status: http.StatusBadRequest, Message: "Invalid value for " + typeErr.Field, Detail: err.Error()}
			}
			return nil, &APIError{Status: http.StatusBadRequest, Message: "Invalid request body", Detail: err.Error()}
		}
	}
	return fields, nil
}

// pathID parses a numeric id URL parameter. Anything else cannot match a row,
// so it is reported as the resource not being found.
func pathID(r *http.Request, param, resource string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, errNotFound(resource)
	}
	return id, nil
}

func queryBool(r *http.Request, name string) bool {
	return strings.EqualFold(r.URL.Query().Get(name), "true")
}

// queryID parses an optional numeric query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errBadRequest("Invalid " + name)
	}
	return &id, nil
}
