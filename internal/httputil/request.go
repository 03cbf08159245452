package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const maxJSONBodyBytes = 1 << 20

// ParseJSON decodes a JSON request body into dest, capping the body at 1MB.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
