package cache

import (
	"context"
	"io"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileDependency invalidates an entry when any of its files is written,
// created, removed or renamed. The parent directories are watched so that
// editors replacing files atomically are observed too.
type FileDependency struct {
	paths []string
}

// NewFileDependency creates a dependency on the given files.
func NewFileDependency(paths ...string) *FileDependency {
	return &FileDependency{paths: paths}
}

// Paths returns the watched file paths.
func (d *FileDependency) Paths() []string {
	out := make([]string, len(d.paths))
	copy(out, d.paths)
	return out
}

// Watch implements Dependency.
func (d *FileDependency) Watch(_ context.Context, invalidate func()) (io.Closer, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]bool, len(d.paths))
	dirs := make(map[string]bool, len(d.paths))
	for _, p := range d.paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	var once sync.Once
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				name, err := filepath.Abs(ev.Name)
				if err != nil || !files[name] || ev.Op&relevant == 0 {
					continue
				}
				once.Do(invalidate)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w, nil
}

// Ensure FileDependency implements Dependency
var _ Dependency = (*FileDependency)(nil)
