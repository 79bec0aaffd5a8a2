package tokenizer

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/logging"
)

// Watcher monitors the artifact root for changes to tokenizer files.
// Bundles are cached for the process lifetime, so a changed artifact does
// not take effect until restart; the watcher surfaces that staleness in the
// log instead of letting it pass unnoticed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	registry  *Registry
	logger    *logging.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher over the registry's family directories.
func NewWatcher(registry *Registry, logger *logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		registry:  registry,
		logger:    logger,
	}, nil
}

// Start begins watching. Family directories that do not exist are skipped;
// their absence is already reported at registry validation time.
func (w *Watcher) Start(ctx context.Context) error {
	for _, family := range model.Families() {
		dir := w.registry.FamilyDir(family)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}

	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isArtifactFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.WarnContext(ctx, "tokenizer artifact changed on disk; cached bundle is stale until restart",
					"path", event.Name, "op", event.Op.String())
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.ErrorContext(ctx, "tokenizer artifact watcher error", "error", err)
		}
	}
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

func isArtifactFile(path string) bool {
	switch filepath.Base(path) {
	case DefinitionFile, ConfigFile, SpecialTokensFile:
		return true
	}
	return false
}
