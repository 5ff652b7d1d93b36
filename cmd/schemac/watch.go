package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the schema file must stay quiet before a recompile.
const settle = 100 * time.Millisecond

// watch recompiles whenever the schema file changes, until ctx is done.
// The parent directory is watched because editors often replace the file
// rather than write it in place.
func (j *job) watch(ctx context.Context) error {
	file, err := filepath.Abs(j.file)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("watch %s: %w", file, err)
	}
	j.log.Info("watching", "file", file)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == file && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				pending = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			j.log.Error("watch", "err", err)
		case <-pending:
			pending = nil
			if err := j.run(ctx); err != nil {
				j.log.Error("compile failed", "err", err)
			}
		}
	}
}
