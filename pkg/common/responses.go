package common

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"article-interactions/pkg/errors"
)

// MaxBodyBytes caps request bodies read by ParseJSONBody callers
const MaxBodyBytes = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Count     *int   `json:"count,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	RespondWithMeta(w, status, data, nil)
}

// RespondWithMeta sends a response with metadata
func RespondWithMeta(w http.ResponseWriter, status int, data interface{}, meta *MetaInfo) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// ListMeta builds metadata for list responses
func ListMeta(requestID string, count int) *MetaInfo {
	return &MetaInfo{
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Count:     &count,
	}
}

// ParseJSONBody parses JSON request body with size limit. Decoding problems
// are reported as validation errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return errors.NewValidationError("invalid request body: " + err.Error())
	}

	return nil
}

// QueryInt reads an integer query parameter, falling back to defaultValue
// when it is absent
func QueryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(key + " must be an integer")
	}
	return v, nil
}

// QueryBool reads a boolean query parameter, falling back to defaultValue
// when it is absent
func QueryBool(r *http.Request, key string, defaultValue bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.NewValidationError(key + " must be a boolean")
	}
	return v, nil
}
