// internal/app/keyframes/keyframes.go

// Package keyframes implements the persistence protocol for per-element
// animation keyframes.
//
// A project stores all of its keyframes in one JSON object string keyed by
// element id. The merge engine replaces exactly one element's list inside
// that map with a field-level update, so saves for different elements (or a
// concurrent elements edit) never clobber each other. Every write is
// verified by a re-read; a silent no-op from the store is surfaced as a
// verification failure, distinct from a rejected write.
package keyframes

import (
	"encoding/json"
	"math"

	"github.com/mstepanova/choreolab/internal/domain/models"
)

// Input is the loosely typed wire form of one keyframe. Decoding into a map
// instead of the stored struct lets a malformed sample be dropped on its own
// rather than failing the whole batch, and lets extra fields on valid
// samples survive the round trip.
type Input map[string]any

// Valid reports whether kf is storable: time, position.x, position.y and
// opacity all present, numeric, and finite. JSON numbers arrive as float64;
// anything else (strings, nulls, missing keys) fails the predicate.
// The diagnostics path uses this same function, so analysis and real
// merges can never disagree.
func Valid(kf Input) bool {
	if !finiteNumber(kf["time"]) {
		return false
	}
	pos, ok := kf["position"].(map[string]any)
	if !ok {
		return false
	}
	if !finiteNumber(pos["x"]) || !finiteNumber(pos["y"]) {
		return false
	}
	return finiteNumber(kf["opacity"])
}

func finiteNumber(v any) bool {
	f, ok := v.(float64)
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Filter returns the valid subset of in, preserving relative order.
// Invalid keyframes are dropped silently; callers wanting counts compare
// lengths.
func Filter(in []Input) []Input {
	out := make([]Input, 0, len(in))
	for _, kf := range in {
		if Valid(kf) {
			out = append(out, kf)
		}
	}
	return out
}

// parseBlob decodes a stored keyframe blob into a map of raw per-element
// entries. An unparsable blob, the literal "{}", or an empty string all
// yield an empty map; a corrupt blob must not make the project
// unsaveable.
//
// Keeping values as raw bytes means untouched elements re-serialize
// byte-identically.
func parseBlob(blob string) map[string]json.RawMessage {
	m := make(map[string]json.RawMessage)
	if blob == "" || blob == models.EmptyKeyframes {
		return m
	}
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return make(map[string]json.RawMessage)
	}
	return m
}

// countKeyframes sums array lengths across every element entry. Entries
// that are not arrays contribute nothing, mirroring how the blob is read
// everywhere else.
func countKeyframes(m map[string]json.RawMessage) int {
	total := 0
	for _, raw := range m {
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err == nil {
			total += len(arr)
		}
	}
	return total
}
