package command

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDebounce coalesces the bursts of events editors produce on save
const ReloadDebounce = 150 * time.Millisecond

// WatchKeymap calls fn with a freshly loaded keymap whenever the file at
// path changes, until ctx is done. The parent directory is watched so that
// editors replacing the file by rename are noticed. It returns once the
// watch is established.
func WatchKeymap(ctx context.Context, path string, fn func(*Keymap, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("keymap watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()

		var (
			mu    sync.Mutex
			timer *time.Timer
		)
		reload := func() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			fn(LoadKeymap(abs))
		}
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(ReloadDebounce, reload)
				mu.Unlock()
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fn(nil, fmt.Errorf("keymap watcher: %w", werr))
			}
		}
	}()
	return nil
}
