// internal/app/features/models3d/handler.go

// Package models3d manages uploaded 3D model files (.glb). Metadata lives
// in the models collection; the binaries sit on disk under the configured
// models directory and are served statically under /files/models/.
package models3d

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	modelstore "github.com/mstepanova/choreolab/internal/app/store/models3d"
	"github.com/mstepanova/choreolab/internal/app/system/authz"
	"github.com/mstepanova/choreolab/internal/app/system/htmlsanitize"
	"github.com/mstepanova/choreolab/internal/app/system/httpx"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single model file at 50 MB.
const maxUploadBytes = 50 << 20

// Handler holds dependencies for model endpoints.
type Handler struct {
	Models    *modelstore.Store
	Dir       string // where uploaded files are written
	PublicURL string // URL prefix the files are served under
	Log       *zap.Logger
}

func NewHandler(store *modelstore.Store, dir, publicURL string, logger *zap.Logger) *Handler {
	return &Handler{Models: store, Dir: dir, PublicURL: strings.TrimRight(publicURL, "/"), Log: logger}
}

type modelResponse struct {
	models.Model
	URL string `json:"url"`
}

func (h *Handler) withURL(m models.Model) modelResponse {
	return modelResponse{Model: m, URL: h.PublicURL + "/" + m.Filename}
}

// HandleUpload handles POST /models/upload (multipart field "model").
// Only .glb files are accepted; the stored filename is a fresh uuid so
// uploads can never collide or traverse paths.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "model file exceeds the 50 MB limit")
		return
	}

	file, header, err := r.FormFile("model")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, `multipart field "model" is required`)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".glb" {
		httpx.WriteError(w, http.StatusBadRequest, "only .glb files are supported")
		return
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.Dir, filename))
	if err != nil {
		h.Log.Error("model file create failed", zap.Error(err), zap.String("filename", filename))
		httpx.WriteError(w, http.StatusInternalServerError, "could not store model file")
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		_ = os.Remove(dst.Name())
		h.Log.Error("model file write failed", zap.Error(err), zap.String("filename", filename))
		httpx.WriteError(w, http.StatusInternalServerError, "could not store model file")
		return
	}

	name := strings.TrimSpace(htmlsanitize.Strict(r.FormValue("name")))
	if name == "" {
		name = strings.TrimSuffix(header.Filename, ext)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create model record")
	defer cancel()

	m, err := h.Models.Create(ctx, models.Model{
		Name:         name,
		Filename:     filename,
		OriginalName: header.Filename,
		Size:         size,
		UserID:       userID,
	})
	if err != nil {
		_ = os.Remove(dst.Name())
		h.Log.Error("model record insert failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not save model")
		return
	}

	h.Log.Info("model uploaded",
		zap.String("model_id", m.ID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.Int64("size", size))
	httpx.WriteJSON(w, http.StatusCreated, h.withURL(m))
}

// ServeList handles GET /models.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list models")
	defer cancel()

	list, err := h.Models.List(ctx)
	if err != nil {
		h.Log.Error("model list failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not list models")
		return
	}

	out := make([]modelResponse, 0, len(list))
	for _, m := range list {
		out = append(out, h.withURL(m))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// ServeByID handles GET /models/{id}.
func (h *Handler) ServeByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get model")
	defer cancel()

	m, err := h.Models.GetByID(ctx, id)
	if err != nil {
		if err == modelstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "model not found")
			return
		}
		h.Log.Error("model lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not load model")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.withURL(m))
}

// HandleDelete handles DELETE /models/{id}. Uploader only; the file on
// disk goes with the record.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := authz.UserCtx(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete model")
	defer cancel()

	m, err := h.Models.GetByID(ctx, id)
	if err != nil {
		if err == modelstore.ErrNotFound {
			httpx.WriteError(w, http.StatusNotFound, "model not found")
			return
		}
		h.Log.Error("model lookup failed", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not delete model")
		return
	}
	if m.UserID != userID {
		httpx.WriteError(w, http.StatusForbidden, "only the uploader can delete this model")
		return
	}

	if err := h.Models.Delete(ctx, id); err != nil {
		h.Log.Error("model record delete failed", zap.Error(err), zap.String("model_id", id.Hex()))
		httpx.WriteError(w, http.StatusInternalServerError, "could not delete model")
		return
	}
	if err := os.Remove(filepath.Join(h.Dir, m.Filename)); err != nil && !os.IsNotExist(err) {
		h.Log.Warn("model file removal failed", zap.Error(err), zap.String("filename", m.Filename))
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "model deleted"})
}
