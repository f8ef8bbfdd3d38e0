// Package httpx renders API responses: JSON payloads on success and RFC7807
// problem documents on failure.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// problemTypeBase namespaces problem type URIs so clients can switch on a
// stable identifier instead of the human-readable title.
const problemTypeBase = "https://api.finsight.dev/problems/"

// maxBodyBytes caps request bodies. Ledger transactions are a few kilobytes
// at most; the analysis endpoints take no body at all.
const maxBodyBytes = 1 << 20

// ProblemDetail is the RFC7807 problem document rendered on failures.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response with a type URI derived
// from the title.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Type:   problemTypeBase + problemSlug(title),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes a JSON request body into the target struct, refusing
// bodies over maxBodyBytes.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(target)
}

func problemSlug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
