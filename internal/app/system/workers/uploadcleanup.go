// internal/app/system/workers/uploadcleanup.go

// Package workers holds the app's background loops.
package workers

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	modelstore "github.com/mstepanova/choreolab/internal/app/store/models3d"
	"go.uber.org/zap"
)

// UploadCleanup is a background worker that removes model files on disk
// with no matching metadata document. Orphans appear when an upload is
// interrupted between the file write and the metadata insert, or when a
// metadata delete succeeds but the file removal fails.
type UploadCleanup struct {
	models   *modelstore.Store
	dir      string
	log      *zap.Logger
	interval time.Duration
	minAge   time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewUploadCleanup creates an upload cleanup worker for dir. Files younger
// than minAge are never touched so an in-flight upload cannot be swept
// before its metadata lands.
func NewUploadCleanup(models *modelstore.Store, dir string, logger *zap.Logger, interval, minAge time.Duration) *UploadCleanup {
	return &UploadCleanup{
		models:   models,
		dir:      dir,
		log:      logger,
		interval: interval,
		minAge:   minAge,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *UploadCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("upload cleanup worker started",
		zap.String("dir", w.dir),
		zap.Duration("interval", w.interval),
		zap.Duration("min_age", w.minAge))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *UploadCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("upload cleanup worker stopped")
}

func (w *UploadCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *UploadCleanup) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.SweepOnce(ctx)
	if err != nil {
		w.log.Error("upload cleanup sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("removed orphaned model files", zap.Int("count", count))
	}
}

// SweepOnce deletes orphaned files older than minAge and returns how many
// were removed.
func (w *UploadCleanup) SweepOnce(ctx context.Context) (int, error) {
	known, err := w.models.List(ctx)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]bool, len(known))
	for _, m := range known {
		referenced[m.Filename] = true
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-w.minAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || referenced[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if err := os.Remove(path); err != nil {
			w.log.Warn("could not remove orphaned file",
				zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
