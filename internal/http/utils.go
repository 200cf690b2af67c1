package http

import (
	"encoding/json"
	"net/http"
)

// WriteJSONError replies with {"error": message} and the given status.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeJSON serializes v as the JSON response body under the given
// status. Encoding failures are ignored; the status line is already on
// the wire by then.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
