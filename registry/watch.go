package registry

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultWatchDebounce = 500 * time.Millisecond

// Watch rescans the storage root whenever entries appear under it, so index
// directories written by other processes become visible without a restart.
// It returns once the watcher is running; the watcher stops with ctx.
func (r *Registry) Watch(ctx context.Context) error {
	log := r.log.With(
		zap.String("action", "watch"),
	)

	debounce := r.cfg.WatchDebounce
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(r.cfg.Root); err != nil {
		w.Close()
		return err
	}

	// Index files land inside the subdirectories, so watch those too.
	entries, err := os.ReadDir(r.cfg.Root)
	if err != nil {
		log.Warn(err.Error())
	}

	for _, entry := range entries {
		if entry.IsDir() {
			r.watchDir(w, filepath.Join(r.cfg.Root, entry.Name()), log)
		}
	}

	go func() {
		defer w.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info("done")
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}

				if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(r.cfg.Root) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						r.watchDir(w, event.Name, log)
					}
				}

				if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
					timer.Reset(debounce)
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}

				log.Error(err.Error())

			case <-timer.C:
				r.Discover()
			}
		}
	}()

	return nil
}

func (r *Registry) watchDir(w *fsnotify.Watcher, dir string, log *zap.Logger) {
	if err := w.Add(dir); err != nil {
		log.Warn("directory not watched",
			zap.String("dir", dir),
			zap.Error(err),
		)
	}
}
