package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/BTreeMap/SymptomFlow/internal/models"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 64 << 10

// internalErrorBody is sent when a response cannot be encoded.
var internalErrorBody []byte

func init() {
	var err error
	internalErrorBody, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("encode internal error body: %v", err))
	}
}

// writeJSONResponse encodes response before touching the headers, so an encoding
// failure still yields a well-formed 500.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response any) {
	body, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: encode failed", "error", err)
		body, statusCode = internalErrorBody, http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Error("Server.writeJSONResponse: write failed", "error", err)
	}
}

// readBody reads the request body up to maxBodyBytes. On failure it has already
// written the error response.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		return body, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONResponse(w, http.StatusRequestEntityTooLarge, models.Error("Request body too large"))
	} else {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Failed to read request body"))
	}
	return nil, false
}

// decodeJSONBody reads a required JSON body into v and validates it. On failure it
// has already written the error response.
func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		slog.Warn("Server.decodeJSONBody: failed to decode JSON", "path", r.URL.Path, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return false
	}
	return true
}
