package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a bundle must stay quiet before it is read.
const DefaultSettle = 250 * time.Millisecond

// Inbox watches a directory and runs every *.bundle.json written to it.
type Inbox struct {
	p       *Pipeline
	dir     string
	watcher *fsnotify.Watcher
	Settle  time.Duration

	// OnSession, when set, is called after each bundle is persisted.
	OnSession func(path string, s *Session)
}

// OpenInbox creates dir if needed and starts watching it. Events are only
// consumed once Run is called.
func (p *Pipeline) OpenInbox(dir string) (*Inbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("inbox watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("inbox watch %s: %w", dir, err)
	}
	return &Inbox{p: p, dir: dir, watcher: watcher, Settle: DefaultSettle}, nil
}

// Run processes bundles until ctx is done, then closes the watcher. Writes
// to the same file are debounced by Settle so half-written bundles are not
// read.
func (in *Inbox) Run(ctx context.Context) error {
	defer in.watcher.Close()
	log := in.p.log.WithField("inbox", in.dir)
	log.Info("inbox watcher started")

	ready := make(chan string, 16)
	var mu sync.Mutex
	pending := map[string]*time.Timer{}
	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(in.Settle)
			return
		}
		pending[path] = time.AfterFunc(in.Settle, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("inbox watcher stopped")
			return nil

		case event, ok := <-in.watcher.Events:
			if !ok {
				return fmt.Errorf("inbox watcher closed")
			}
			if !IsBundle(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				schedule(event.Name)
			}

		case path := <-ready:
			sess, err := in.p.RunBundle(ctx, path)
			if err != nil {
				log.WithError(err).WithField("bundle", path).Error("bundle failed")
				continue
			}
			if in.OnSession != nil {
				in.OnSession(path, sess)
			}

		case err, ok := <-in.watcher.Errors:
			if !ok {
				return fmt.Errorf("inbox error channel closed")
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}
