// Package httpapi wires the HTTP surface named in §6: the three pipeline
// endpoints (list, detail, rate) plus the thin external collaborators
// (auth, content creation, health, metrics) that give them a runnable
// environment, following the teacher's chi_router.go route-grouping and
// response.go envelope conventions.
package httpapi

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/logging"
)

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encode response body failed")
	}
}

// errorBody is the JSON shape for every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeError classifies err per §7's taxonomy and writes the matching HTTP
// status. Errors that aren't a recognized *apierr.Error are treated as
// Fatal-adjacent internal failures: logged in full, surfaced to the caller
// as a bare 500 with no internal detail.
func writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := apierr.As(err); ok {
		if apiErr.Kind == apierr.KindTransient {
			logging.Error().Err(err).Msg("transient failure surfaced to client")
		}
		writeJSON(w, apiErr.Status(), errorBody{Error: apiErr.Message})
		return
	}
	logging.Error().Err(err).Msg("unclassified error surfaced to client")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
