package defs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSettle is how long a change sits before it is reported. Editors
// fire several writes per save, and a rename lands as a remove/create
// pair; collecting into a pending set and flushing on a cadence folds
// those into one event per definition.
const watchSettle = 100 * time.Millisecond

// Watcher evicts cached definitions when their on-disk copies change and
// reports the affected definition names so a running simulation can act
// on the reload.
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
	once sync.Once

	// Changed carries definition names in the form MachineDef and
	// LoadScript take, not raw paths.
	Changed chan string
	Errors  chan error
}

// NewWatcher watches the given directories for definition changes.
func NewWatcher(dirs ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:      fs,
		done:    make(chan struct{}),
		Changed: make(chan string, 16),
		Errors:  make(chan error, 1),
	}
	go w.run()
	return w, nil
}

// Close stops watching. Changed and Errors are closed by the watch
// goroutine once it has wound down, never from under a pending send.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Changed)
	defer close(w.Errors)

	pending := make(map[string]struct{})
	settle := time.NewTicker(watchSettle)
	defer settle.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if name, ok := defName(event.Name); ok {
				pending[name] = struct{}{}
			}
		case <-settle.C:
			for name := range pending {
				delete(pending, name)
				Invalidate(name)
				select {
				case w.Changed <- name:
				case <-w.done:
					return
				}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// defName maps a changed path to the definition name Load and MachineDef
// take. Non-definition files report nothing.
func defName(path string) (string, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return name, true
	case ".tengo":
		return "scripts/" + name, true
	}
	return "", false
}
