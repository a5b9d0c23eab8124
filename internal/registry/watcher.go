package registry

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"llamadesk/internal/common/fsutil"
	"llamadesk/pkg/types"
)

// rescanDelay coalesces bursts of filesystem events (a model being copied
// in produces many writes).
const rescanDelay = 250 * time.Millisecond

// Watcher keeps an up-to-date model list for a directory.
type Watcher struct {
	dir     string
	scanner *Scanner
	log     zerolog.Logger

	mu     sync.RWMutex
	models []types.Model
}

// NewWatcher performs an initial scan of dir.
func NewWatcher(dir string, l zerolog.Logger) (*Watcher, error) {
	expanded, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	w := &Watcher{dir: expanded, scanner: NewScanner(), log: l.With().Str("component", "registry").Logger()}
	if err := w.Rescan(); err != nil {
		return nil, err
	}
	return w, nil
}

// Models returns a copy of the current list.
func (w *Watcher) Models() []types.Model {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]types.Model, len(w.models))
	copy(out, w.models)
	return out
}

// Rescan re-reads the directory.
func (w *Watcher) Rescan() error {
	models, err := w.scanner.Scan(w.dir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.models = models
	w.mu.Unlock()
	w.log.Debug().Int("models", len(models)).Str("dir", w.dir).Msg("registry scanned")
	return nil
}

// Run watches the directory until ctx is done, rescanning after changes.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.scanner.Matches(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(rescanDelay)
			} else {
				timer.Reset(rescanDelay)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		case <-fire:
			fire = nil
			if err := w.Rescan(); err != nil {
				w.log.Warn().Err(err).Msg("rescan failed")
			}
		}
	}
}
