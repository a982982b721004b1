// Package watcher turns filesystem activity into review triggers. It wraps
// fsnotify with recursive directory tracking, an extension allow-list, path
// exclusions, and a debounce window that batches editor save storms into a
// single trigger.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/revwatch/internal/errors"
	"github.com/Iron-Ham/revwatch/internal/logging"
)

// DefaultDebounce is the window during which rapid events collapse into
// one trigger. Editors often write a file several times per save.
const DefaultDebounce = 400 * time.Millisecond

// DefaultExtensions is the allow-list of file extensions that count as
// source changes.
var DefaultExtensions = []string{
	".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".rb", ".rs",
	".c", ".h", ".cpp", ".hpp", ".cs", ".php", ".swift", ".kt", ".scala",
	".sh", ".sql", ".proto", ".yaml", ".yml", ".json", ".toml",
}

// DefaultExclusions are directory names that are never watched: VCS
// internals, the tool's own state, and dependency caches.
var DefaultExclusions = []string{
	".git", ".revwatch", "node_modules", "vendor", ".venv",
	"__pycache__", "target", "dist", "build",
}

// Trigger is one batched change notification.
type Trigger struct {
	// Paths are the files whose events were batched into this trigger.
	Paths []string
	// At is when the debounce window closed.
	At time.Time
}

// Options configures a Watcher. Zero values fall back to the defaults above.
type Options struct {
	Debounce   time.Duration
	Extensions []string
	Exclusions []string
	Logger     *logging.Logger
}

// Watcher watches a directory tree and emits Triggers on a channel.
type Watcher struct {
	root       string
	fsw        *fsnotify.Watcher
	debounce   time.Duration
	extensions map[string]struct{}
	exclusions []string
	log        *logging.Logger

	triggers chan Trigger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher rooted at root. Call Start to begin watching.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filesystem watcher")
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}

	extensions := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = struct{}{}
	}

	exclusions := make([]string, 0, len(DefaultExclusions)+len(opts.Exclusions))
	exclusions = append(exclusions, DefaultExclusions...)
	exclusions = append(exclusions, opts.Exclusions...)

	return &Watcher{
		root:       root,
		fsw:        fsw,
		debounce:   opts.Debounce,
		extensions: extensions,
		exclusions: exclusions,
		log:        opts.Logger,
		triggers:   make(chan Trigger, 1),
		stopCh:     make(chan struct{}),
	}, nil
}

// Triggers returns the channel batched change notifications arrive on.
// If the consumer is mid-session when a trigger fires, the trigger is
// dropped rather than queued.
func (w *Watcher) Triggers() <-chan Trigger {
	return w.triggers
}

// Start adds the directory tree to the watcher and begins the event loop.
func (w *Watcher) Start() error {
	if err := w.watchRecursive(w.root); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.root)
	}

	go w.loop()
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.fsw.Close()
	})
}

// watchRecursive adds root and every non-excluded subdirectory.
func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.excluded(path) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", addErr.Error())
		}
		return nil
	})
}

func (w *Watcher) loop() {
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New directories need their own watch so events under them
			// are not missed.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.excluded(event.Name) {
						_ = w.watchRecursive(event.Name)
					}
					continue
				}
			}

			if !w.relevant(event.Name) {
				continue
			}

			pending[event.Name] = struct{}{}
			debounce.Reset(w.debounce)

		case <-debounce.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			pending = make(map[string]struct{})
			w.emit(Trigger{Paths: paths, At: time.Now()})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("filesystem watcher error", "error", err.Error())
		}
	}
}

// emit delivers a trigger without blocking. A full channel means a session
// is already pending; the trigger is dropped, never queued.
func (w *Watcher) emit(t Trigger) {
	select {
	case w.triggers <- t:
		w.log.Debug("change trigger emitted", "paths", len(t.Paths))
	default:
		w.log.Info("change trigger dropped, review already pending")
	}
}

// relevant reports whether a file event should count toward a trigger.
func (w *Watcher) relevant(path string) bool {
	if w.excluded(path) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := w.extensions[ext]
	return ok
}

// excluded reports whether any path element is an excluded directory name.
func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		for _, excl := range w.exclusions {
			if part == excl {
				return true
			}
		}
	}
	return false
}
