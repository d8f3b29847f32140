package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay lets a burst of writes to one bundle count as one change.
const settleDelay = 100 * time.Millisecond

var bundleExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
}

// Watch calls onChange with the path of every bundle written or created
// under paths until ctx is done. A path may be a bundle file or a directory.
func Watch(ctx context.Context, logger *zap.Logger, paths []string, onChange func(context.Context, string)) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	files := make(map[string]bool)
	watchDirs := false
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files[filepath.Clean(path)] = true
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return err
			}
			continue
		}
		watchDirs = true
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return watcher.Add(p)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	wanted := func(event fsnotify.Event) bool {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return false
		}
		if files[filepath.Clean(event.Name)] {
			return true
		}
		return watchDirs && bundleExtensions[filepath.Ext(event.Name)]
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !wanted(event) {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(settleDelay):
			}
			changed := []string{event.Name}
			for _, e := range pending(watcher.Events) {
				if wanted(e) && !slices.Contains(changed, e.Name) {
					changed = append(changed, e.Name)
				}
			}
			for _, name := range changed {
				logger.Info("Bundle changed", zap.String("path", name))
				onChange(ctx, name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// pending takes the events that queued up while a change settled.
func pending(events <-chan fsnotify.Event) []fsnotify.Event {
	var out []fsnotify.Event
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}
