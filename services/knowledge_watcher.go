package services

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// KnowledgeWatcher reloads the default knowledge document when its file
// changes on disk.
type KnowledgeWatcher struct {
	library *DocumentLibrary
	logger  *zap.Logger
}

// NewKnowledgeWatcher creates a watcher for the library's configured path.
func NewKnowledgeWatcher(library *DocumentLibrary, logger *zap.Logger) *KnowledgeWatcher {
	return &KnowledgeWatcher{
		library: library,
		logger:  logger,
	}
}

// Watch blocks until ctx is cancelled. It watches the parent directory so
// editors that save by rename are still picked up.
func (w *KnowledgeWatcher) Watch(ctx context.Context) error {
	path := w.library.Path()
	if path == "" {
		return errors.New("no knowledge base path configured")
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	w.logger.Info("Watching knowledge base", zap.String("path", target))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, target)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Knowledge watcher error", zap.Error(err))

		case <-ctx.Done():
			w.logger.Info("Knowledge watcher stopped")
			return nil
		}
	}
}

func (w *KnowledgeWatcher) handleEvent(event fsnotify.Event, target string) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	changed, err := w.library.Reload()
	if err != nil {
		w.logger.Warn("Keeping previous knowledge base", zap.Error(err))
		return
	}
	if changed {
		w.logger.Info("Knowledge base reloaded", zap.String("event", event.Op.String()))
	}
}
