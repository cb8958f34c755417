// Package watch triggers a callback when result files below a folder change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/simresults-indexer/log"
)

type (
	Option  func(*Watcher)
	Watcher struct {
		dir       string
		extension string
		debounce  time.Duration
		onChange  func(ctx context.Context)
		l         *log.Logger
	}
)

// WithDebounce sets the quiet period after the last event before the
// callback runs. Writers usually produce several events per file.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithExtension(ext string) Option {
	return func(w *Watcher) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.extension = ext
	}
}

func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		w.l = l
	}
}

func New(dir string, onChange func(ctx context.Context), opts ...Option) *Watcher {
	ret := &Watcher{
		dir:       dir,
		extension: ".xml",
		debounce:  2 * time.Second,
		onChange:  onChange,
		l:         log.Default().Named("watch"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Run watches the folder and its subfolders until ctx is done
//
//nolint:funlen,cyclop // by design
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := w.addTree(watcher, w.dir); err != nil {
		return err
	}
	w.l.Info("watching folder", log.String("dir", w.dir))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.l.Info("context done, stopping watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.l.Debug("change detected",
				log.String("file", event.Name), log.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.l.Warn("could not watch folder",
							log.String("dir", event.Name), log.ErrorField(err))
					}
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.l.Error("watcher error", log.ErrorField(err))
		case <-timer.C:
			w.l.Info("result files changed")
			w.onChange(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), w.extension) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
