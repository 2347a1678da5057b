// internal/app/keyframes/compact.go
package keyframes

import (
	"context"
	"encoding/json"
	"sort"

	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	"github.com/mstepanova/choreolab/internal/app/system/apierrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CompactResult reports what compaction removed.
type CompactResult struct {
	Removed    []string `json:"removed"`
	Kept       int      `json:"kept"`
	BlobLength int      `json:"blobLength"`
}

// Compact drops blob entries whose element no longer exists in the project.
// Merge never prunes, so this is the only place stale keys are removed,
// and it runs only when explicitly invoked (the element-deletion flow or
// the compaction endpoint).
func (e *Engine) Compact(ctx context.Context, projectID primitive.ObjectID) (CompactResult, error) {
	project, err := e.projects.GetByID(ctx, projectID)
	if err != nil {
		if err == projectstore.ErrNotFound {
			return CompactResult{}, apierrors.New(apierrors.KindNotFound, "project not found")
		}
		return CompactResult{}, apierrors.Wrap(apierrors.KindStore, "loading project", err)
	}

	m := parseBlob(project.KeyframesJSON)

	live := make(map[string]bool, len(project.Elements))
	for _, el := range project.Elements {
		live[el.ID] = true
	}

	var removed []string
	for id := range m {
		if !live[id] {
			removed = append(removed, id)
			delete(m, id)
		}
	}
	if len(removed) == 0 {
		return CompactResult{Kept: len(m), BlobLength: len(project.KeyframesJSON)}, nil
	}
	sort.Strings(removed)

	blob, err := json.Marshal(m)
	if err != nil {
		return CompactResult{}, apierrors.Wrap(apierrors.KindStore, "serializing keyframe map", err)
	}

	matched, _, err := e.projects.SetKeyframesField(ctx, projectID, string(blob))
	if err != nil {
		return CompactResult{}, apierrors.Wrap(apierrors.KindStore, "writing compacted keyframes", err)
	}
	if matched == 0 {
		return CompactResult{}, apierrors.New(apierrors.KindNotFound, "project disappeared before compaction")
	}

	e.log.Info("keyframe blob compacted",
		zap.String("project_id", projectID.Hex()),
		zap.Strings("removed", removed),
		zap.Int("kept", len(m)))
	return CompactResult{Removed: removed, Kept: len(m), BlobLength: len(blob)}, nil
}
