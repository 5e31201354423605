package folio

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// contentWatcher reloads the content index when markdown files change.
// Events are debounced so one editor save, or a bulk git checkout,
// triggers a single reload.
type contentWatcher struct {
	watcher  *fsnotify.Watcher
	reload   func()
	onError  func(error)
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// watchContent watches contentDir and its section subdirectories and
// calls reload once changes settle. onError receives watcher errors.
func watchContent(contentDir string, reload func(), onError func(error)) (*contentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(contentDir); err != nil {
		watcher.Close()
		return nil, err
	}
	for _, sub := range []string{"posts", "projects", "jobs"} {
		dir := filepath.Join(contentDir, sub)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	w := &contentWatcher{
		watcher:  watcher,
		reload:   reload,
		onError:  onError,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Stop halts the watcher and waits for the event loop to exit.
func (w *contentWatcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *contentWatcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var lastEvent time.Time
	pending := false

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			lastEvent = time.Now()
			pending = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= w.debounce {
				pending = false
				w.reload()
			}
		}
	}
}

// relevant filters events down to markdown changes. A freshly created
// section directory is added to the watch list; files dropped into it
// before the watch took effect are covered by the reload it triggers.
func (w *contentWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasSuffix(event.Name, ".md") {
		return true
	}
	if event.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			_ = w.watcher.Add(event.Name)
			return true
		}
	}
	return false
}
