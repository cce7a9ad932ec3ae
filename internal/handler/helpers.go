package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/service"
)

// maxBodyBytes caps request bodies accepted by the console API.
const maxBodyBytes = 64 << 10

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryBool extracts a boolean query parameter. Returns false if the parameter
// is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := strings.ToLower(r.URL.Query().Get(key))
	return val == "true" || val == "1"
}

// classifyAuthError maps a login failure to an HTTP status and a message that
// is safe to show to the caller.
func classifyAuthError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRejected):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusBadGateway, "Identity service unavailable"
	default:
		return http.StatusInternalServerError, "Login failed"
	}
}
