// Package pathutil parses path parameters and normalizes request paths for
// metric labels.
package pathutil

import (
	"errors"
	"net/http"
	"strconv"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ID parses the named wildcard of the matched ServeMux pattern, for example
// "id" in "GET /articles/{id}". Non-numeric and non-positive values yield ErrInvalidID.
func ID(r *http.Request, name string) (int64, error) {
	return ParseID(r.PathValue(name))
}

// ParseID parses a positive int64.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
