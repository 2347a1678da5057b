// internal/app/system/httpx/httpx.go

// Package httpx holds the small JSON request/response helpers shared by
// every feature handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/mstepanova/choreolab/internal/app/system/apierrors"
)

// maxBodyBytes caps JSON request bodies. Keyframe batches are the largest
// legitimate payload and stay far below this.
const maxBodyBytes = 4 << 20

// WriteJSON writes payload as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError sends a JSON error body with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// WriteAPIError classifies err and writes the matching status. The reason
// string, when present, is included so clients can distinguish e.g.
// "not-a-member" from "insufficient-role".
func WriteAPIError(w http.ResponseWriter, err error) {
	kind := apierrors.KindOf(err)
	WriteJSON(w, apierrors.Status(kind), map[string]string{"message": err.Error()})
}

// Decode reads the request body into dst. On failure it writes a 400 and
// returns false; callers just return.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
