// Package watch ingests files dropped into an inbox directory.
//
// Each supported file (PDF, TXT, DOCX) is added to one target document once
// writes to it have settled, and removed after a successful ingestion.
// Files that fail stay in place and are retried only after they change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driving"
	"github.com/custodia-labs/localrag/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before ingestion.
const DefaultSettle = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Dir is the inbox directory.
	Dir string

	// DocumentName is the document every file is added to. It is created
	// with Strategy on the first file if it does not exist.
	DocumentName string

	// Strategy is the chunking strategy for a newly created document.
	Strategy domain.ChunkingStrategy

	// Settle overrides DefaultSettle.
	Settle time.Duration

	// OnIngest, when set, is called after every attempt.
	OnIngest func(path string, result *domain.IngestResult, err error)
}

// Watcher watches an inbox directory and ingests files placed in it.
type Watcher struct {
	ingest driving.IngestService
	cfg    Config

	pending map[string]time.Time
	failed  map[string]time.Time
}

// New creates a watcher for cfg.Dir.
func New(ingest driving.IngestService, cfg Config) (*Watcher, error) {
	if ingest == nil {
		return nil, fmt.Errorf("%w: ingest service is required", domain.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.DocumentName) == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: inbox: %w", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: inbox %s is not a directory", domain.ErrInvalidInput, cfg.Dir)
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return &Watcher{
		ingest:  ingest,
		cfg:     cfg,
		pending: make(map[string]time.Time),
		failed:  make(map[string]time.Time),
	}, nil
}

// Run processes files already in the inbox and then watches for new ones.
// It blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}
	logger.Info("Watching %s for document %q", w.cfg.Dir, w.cfg.DocumentName)

	if err := w.scan(); err != nil {
		return err
	}

	ticker := time.NewTicker(w.cfg.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// scan queues the files already present in the inbox.
func (w *Watcher) scan() error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.cfg.Dir, err)
	}
	now := time.Now()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.Dir, e.Name())
		if accept(path) {
			w.pending[path] = now
		}
	}
	return nil
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if !accept(event.Name) {
			return
		}
		delete(w.failed, event.Name)
		w.pending[event.Name] = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
		delete(w.failed, event.Name)
	}
}

// flush ingests every pending file that has not changed for Settle.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var due []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.cfg.Settle {
			due = append(due, path)
		}
	}
	sort.Strings(due)

	for _, path := range due {
		if ctx.Err() != nil {
			return
		}
		delete(w.pending, path)
		if _, ok := w.failed[path]; ok {
			continue
		}
		w.process(ctx, path)
	}
}

// process ingests one file and removes it on success.
func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	result, err := w.ingestFile(ctx, path)
	if w.cfg.OnIngest != nil {
		w.cfg.OnIngest(path, result, err)
	}
	if err != nil {
		w.failed[path] = time.Now()
		logger.Error(err, "Ingesting %s", filepath.Base(path))
		return
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("Could not remove %s: %v", path, err)
		return
	}
	logger.Info("Ingested %s: %d paragraphs into %q", filepath.Base(path), result.Paragraphs, result.Document.Name)
}

// ingestFile appends to the target document, creating it on first use.
func (w *Watcher) ingestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	req := domain.ReadRequest{
		Path:          path,
		DocumentName:  w.cfg.DocumentName,
		AddToDocument: true,
	}
	result, err := w.ingest.Ingest(ctx, req)
	if !errors.Is(err, domain.ErrNotFound) {
		return result, err
	}

	logger.Debug("Document %q not found, creating it", w.cfg.DocumentName)
	req.AddToDocument = false
	req.Strategy = w.cfg.Strategy
	return w.ingest.Ingest(ctx, req)
}

// accept reports whether path names a visible file of a supported format.
func accept(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	_, err := domain.FormatFromPath(path)
	return err == nil
}
