package prompts

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Store serves the current template Set and swaps it when the template
// directory changes. Readers never see a half-loaded Set.
type Store struct {
	dir    string
	logger *logrus.Logger
	set    atomic.Pointer[Set]
}

// NewStore loads the templates once. A broken override directory is an
// error at startup.
func NewStore(dir string, logger *logrus.Logger) (*Store, error) {
	set, err := Load(dir)
	if err != nil {
		return nil, err
	}
	s := &Store{dir: dir, logger: logger}
	s.set.Store(set)
	return s, nil
}

// Current returns the active Set.
func (s *Store) Current() *Set {
	return s.set.Load()
}

// Reload re-reads the directory. On failure the previous Set stays active.
func (s *Store) Reload() error {
	set, err := Load(s.dir)
	if err != nil {
		return err
	}
	s.set.Store(set)
	return nil
}

// Watch reloads the Set on every write to the template directory until ctx
// is done. It returns immediately when no directory is configured.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !relevant(event) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.WithError(err).WithField("file", event.Name).Warn("Prompt reload failed, keeping previous templates")
					continue
				}
				s.logger.WithField("file", event.Name).Info("Prompt templates reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.WithError(err).Warn("Prompt watcher error")
			}
		}
	}()

	return nil
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".tmpl", ".yaml":
		return true
	}
	return false
}
