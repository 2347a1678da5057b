// internal/app/keyframes/engine.go
package keyframes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	"github.com/mstepanova/choreolab/internal/app/system/apierrors"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProjectStore is the slice of the project store the engine needs: load a
// project and write its keyframe blob. *projectstore.Store satisfies it.
type ProjectStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error)
	SetKeyframesField(ctx context.Context, id primitive.ObjectID, blob string) (matched, modified int64, err error)
}

// Engine merges keyframe batches into project blobs. One instance serves
// every endpoint that saves keyframes, so the legacy "direct" route and the
// regular route cannot drift apart.
type Engine struct {
	projects ProjectStore
	log      *zap.Logger
}

func NewEngine(projects ProjectStore, logger *zap.Logger) *Engine {
	return &Engine{projects: projects, log: logger}
}

// MergeResult reports what a merge accepted and what the project holds
// afterwards, so callers can diagnose a save without re-running it.
type MergeResult struct {
	ElementID      string `json:"elementId"`
	Accepted       int    `json:"accepted"`
	BlobLength     int    `json:"blobLength"`
	TotalKeyframes int    `json:"totalKeyframes"`
}

// Merge validates incoming keyframes for one element and folds them into
// the project's keyframe map.
//
// The element's stored list is fully replaced by the valid subset of
// incoming (never appended to), while every other element's entry keeps
// its exact stored bytes. The write touches only the keyframes_json field
// and is verified by a re-read. Merging the same valid batch twice leaves
// the blob unchanged.
func (e *Engine) Merge(ctx context.Context, projectID primitive.ObjectID, elementID string, incoming []Input) (MergeResult, error) {
	if strings.TrimSpace(elementID) == "" {
		return MergeResult{}, apierrors.New(apierrors.KindValidation, "elementId is required")
	}

	project, err := e.projects.GetByID(ctx, projectID)
	if err != nil {
		if err == projectstore.ErrNotFound {
			return MergeResult{}, apierrors.New(apierrors.KindNotFound, "project not found")
		}
		return MergeResult{}, apierrors.Wrap(apierrors.KindStore, "loading project", err)
	}

	m := parseBlob(project.KeyframesJSON)

	valid := Filter(incoming)
	if dropped := len(incoming) - len(valid); dropped > 0 {
		e.log.Warn("dropped invalid keyframes",
			zap.String("project_id", projectID.Hex()),
			zap.String("element_id", elementID),
			zap.Int("dropped", dropped))
	}

	validRaw, err := json.Marshal(valid)
	if err != nil {
		return MergeResult{}, apierrors.Wrap(apierrors.KindValidation, "encoding keyframes", err)
	}
	m[elementID] = validRaw

	blob, err := json.Marshal(m)
	if err != nil {
		return MergeResult{}, apierrors.Wrap(apierrors.KindStore, "serializing keyframe map", err)
	}

	matched, modified, err := e.projects.SetKeyframesField(ctx, projectID, string(blob))
	if err != nil {
		return MergeResult{}, apierrors.Wrap(apierrors.KindStore, "writing keyframes", err)
	}
	if matched == 0 {
		return MergeResult{}, apierrors.New(apierrors.KindNotFound, "project disappeared before keyframe update")
	}
	// modified == 0 is legitimate for an identical re-submission; the
	// verification read below decides whether the write actually landed.
	_ = modified

	verified, err := e.projects.GetByID(ctx, projectID)
	if err != nil {
		return MergeResult{}, apierrors.Wrap(apierrors.KindStore, "re-reading project after write", err)
	}
	if len(valid) > 0 && (verified.KeyframesJSON == "" || verified.KeyframesJSON == models.EmptyKeyframes) {
		return MergeResult{}, apierrors.New(apierrors.KindVerification,
			fmt.Sprintf("keyframes missing after write (wrote %d bytes, found %d)",
				len(blob), len(verified.KeyframesJSON)))
	}

	result := MergeResult{
		ElementID:      elementID,
		Accepted:       len(valid),
		BlobLength:     len(verified.KeyframesJSON),
		TotalKeyframes: countKeyframes(parseBlob(verified.KeyframesJSON)),
	}
	e.log.Info("keyframes merged",
		zap.String("project_id", projectID.Hex()),
		zap.String("element_id", elementID),
		zap.Int("accepted", result.Accepted),
		zap.Int("total", result.TotalKeyframes),
		zap.Int("blob_length", result.BlobLength))
	return result, nil
}
