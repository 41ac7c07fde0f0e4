// Package watch feeds a markdown file on disk into a render session. Every
// save becomes a submission, so bursts of saves coalesce in the session.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/notedit/internal/doctree"
)

// Submitter accepts documents for rendering. *pipeline.Session satisfies it.
type Submitter interface {
	Submit(doc doctree.Document) error
}

// Watcher reloads one file whenever it changes.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	path        string
	target      Submitter
	attachments []doctree.FileRef
	onLoad      func(doctree.Document)
	log         *slog.Logger

	// attachDir, when set, is re-listed into attachments whenever a file
	// appears in or leaves it.
	attachDir     string
	attachExclude []string
	skip          map[string]bool

	errors chan error
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithAttachments sends files along with every submission.
func WithAttachments(files []doctree.FileRef) Option {
	return func(w *Watcher) { w.attachments = files }
}

// WithAttachmentDir resolves attachments from the files in dir and refreshes
// them, resubmitting the document, when files are added or removed there.
// Paths in exclude, such as the preview being written, are never attached.
func WithAttachmentDir(dir string, exclude ...string) Option {
	return func(w *Watcher) {
		w.attachDir = dir
		w.attachExclude = exclude
	}
}

// WithOnLoad runs fn after each successful submission.
func WithOnLoad(fn func(doctree.Document)) Option {
	return func(w *Watcher) { w.onLoad = fn }
}

// WithLogger sets the watcher logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// New creates a watcher for path. Nothing is read until Start.
func New(path string, target Submitter, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		path:      absPath,
		target:    target,
		log:       slog.New(slog.DiscardHandler),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.attachDir != "" {
		absDir, err := filepath.Abs(w.attachDir)
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("resolve %s: %w", w.attachDir, err)
		}
		w.attachDir = absDir
		w.skip = excludeSet(w.attachExclude)
	}
	return w, nil
}

// Errors returns watch and reload errors. Errors are dropped when nobody
// drains the channel.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start submits the current contents and begins watching. The file's
// directory is watched so editors that save by rename are still seen.
func (w *Watcher) Start() error {
	if _, err := os.Stat(w.path); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	if w.attachDir != "" {
		if w.attachDir != filepath.Dir(w.path) {
			if err := w.fsWatcher.Add(w.attachDir); err != nil {
				return fmt.Errorf("watch %s: %w", w.attachDir, err)
			}
		}
		if err := w.refreshAttachments(); err != nil {
			return err
		}
	}
	if err := w.reload(); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

// Stop shuts down the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	switch {
	case name == w.path:
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
	case w.attachDir != "" && filepath.Dir(name) == w.attachDir:
		if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !attachable(name, w.skip) {
			return
		}
		if err := w.refreshAttachments(); err != nil {
			w.report(err)
			return
		}
		w.log.Debug("attachments changed", "dir", w.attachDir, "count", len(w.attachments))
	default:
		return
	}
	if err := w.reload(); err != nil {
		w.report(err)
	}
}

func (w *Watcher) refreshAttachments() error {
	files, err := DirAttachments(w.attachDir, w.attachExclude...)
	if err != nil {
		return err
	}
	w.attachments = files
	return nil
}

func (w *Watcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.path, err)
	}
	doc := doctree.Document{Text: string(data), Attachments: w.attachments}
	if err := w.target.Submit(doc); err != nil {
		return fmt.Errorf("submit %s: %w", w.path, err)
	}
	w.log.Debug("submitted", "path", w.path, "bytes", len(data))
	if w.onLoad != nil {
		w.onLoad(doc)
	}
	return nil
}

func (w *Watcher) report(err error) {
	w.log.Warn("watch error", "path", w.path, "error", err)
	select {
	case w.errors <- err:
	default:
	}
}
