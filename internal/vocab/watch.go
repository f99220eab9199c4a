package vocab

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Reload rebuilds the vocabularies from the defaults plus every file in dir
// and swaps them in at once, so readers never see a half-merged state.
func (l *Loader) Reload(dir string) error {
	fresh := NewLoader()
	if err := fresh.LoadFromDir(dir); err != nil {
		return err
	}

	l.mu.Lock()
	l.categories = fresh.categories
	l.mu.Unlock()
	return nil
}

// Watch reloads the vocabularies whenever a YAML file in dir is written,
// created or removed. It runs until ctx is cancelled. A failed reload keeps
// the previous vocabularies.
func (l *Loader) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	slog.Info("vocab: watching for changes", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isVocabularyFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := l.Reload(dir); err != nil {
				slog.Error("vocab: reload failed, keeping previous vocabularies", "dir", dir, "error", err)
				continue
			}
			slog.Info("vocab: reloaded", "file", filepath.Base(event.Name), "op", event.Op.String())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("vocab: watcher error", "error", err)
		}
	}
}

func isVocabularyFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
