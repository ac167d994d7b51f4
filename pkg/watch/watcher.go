// Package watch monitors a drop directory for word-processing documents
// and runs each new file through the citation pipeline, writing the
// processed copy alongside it.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	"gopkg.in/fsnotify.v1"
)

// ProcessFunc runs one document through the pipeline and returns the
// processed bytes.
type ProcessFunc func(ctx context.Context, fileBytes []byte) ([]byte, error)

// OutputSuffix marks processed files so they are never reprocessed.
const OutputSuffix = "_cited"

// DefaultDebounce is how long a file must be quiet before processing,
// so half-written drops are not picked up mid-copy.
const DefaultDebounce = 2 * time.Second

// Watcher monitors one directory for dropped documents.
type Watcher struct {
	dir      string
	outDir   string
	process  ProcessFunc
	debounce time.Duration

	watcher  *fsnotify.Watcher
	stopChan chan struct{}

	pendingMu sync.Mutex
	pending   map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period before a file is processed.
func WithDebounce(debounce time.Duration) Option {
	return func(w *Watcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}

// New creates a watcher for dir. Processed files land in outDir, or
// next to the original when outDir is empty.
func New(dir, outDir string, process ProcessFunc, options ...Option) *Watcher {
	if outDir == "" {
		outDir = dir
	}
	watcher := &Watcher{
		dir:      dir,
		outDir:   outDir,
		process:  process,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, option := range options {
		option(watcher)
	}
	return watcher
}

// Start begins watching. Existing files in the directory are not
// touched; only files created or written after Start are processed.
func (w *Watcher) Start(ctx context.Context) error {
	if w.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	w.watcher = notifier
	w.stopChan = make(chan struct{})

	go w.watchLoop(ctx)

	if err := notifier.Add(w.dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	log.Info().Str("dir", w.dir).Str("out", w.outDir).Msg("watching for documents")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return fmt.Errorf("watcher is not running")
	}
	close(w.stopChan)
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isCandidate(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				w.scheduleFile(ctx, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

// scheduleFile (re)arms the debounce timer for a path; processing fires
// only once the file has been quiet for the full window.
func (w *Watcher) scheduleFile(ctx context.Context, path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.pendingMu.Lock()
		delete(w.pending, path)
		w.pendingMu.Unlock()
		w.handleFile(ctx, path)
	})
}

func (w *Watcher) handleFile(ctx context.Context, path string) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("cannot read dropped document")
		return
	}

	log.Info().Str("file", path).Msg("processing dropped document")
	output, err := w.process(ctx, fileBytes)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("processing failed")
		return
	}

	target := OutputPath(w.outDir, path)
	if err := os.WriteFile(target, output, 0o644); err != nil {
		log.Warn().Err(err).Str("file", target).Msg("cannot write processed document")
		return
	}
	log.Info().Str("file", target).Msg("processed document written")
}

// isCandidate filters watch events down to real document drops:
// .docx files that are not our own output, not editor lock files, and
// not hidden.
func isCandidate(path string) bool {
	name := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		return false
	}
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return !strings.HasSuffix(stem, OutputSuffix)
}

// OutputPath returns the processed-file path for an input document.
func OutputPath(outDir, inputPath string) string {
	name := filepath.Base(inputPath)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return filepath.Join(outDir, stem+OutputSuffix+ext)
}
