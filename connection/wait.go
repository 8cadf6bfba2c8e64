package connection

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// WaitForFile blocks until path exists, a kernel subprocess's connection
// file typically appearing moments after it starts, or ctx is done.
//
// It watches path's parent directory rather than polling: a launched
// kernel process writes the file once and never rewrites it, so a single
// Create event is all this needs to catch.
func WaitForFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithMessage(err, "creating connection file watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return errors.WithMessagef(err, "watching directory %s", dir)
	}

	// The file may have been created between the Stat above and Add.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("connection file watcher closed unexpectedly")
			}
			return errors.WithMessage(err, "watching for connection file")
		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.New("connection file watcher closed unexpectedly")
			}
			if ev.Name == path && (ev.Op&(fsnotify.Create|fsnotify.Write) != 0) {
				return nil
			}
		}
	}
}
