package pipeline

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/notedit/internal/doctree"
)

// ErrDisposed is returned when submitting to a disposed session.
var ErrDisposed = errors.New("session disposed")

// Session schedules renders for one editing session. At most one render is
// in flight; submissions that arrive meanwhile collapse into a single pending
// document that always holds the latest one.
type Session struct {
	worker   *Worker
	onParsed func(doctree.ParsedDocument)
	log      *slog.Logger
	stats    *RenderStats

	mu       sync.Mutex
	busy     bool
	pending  *doctree.Document // non-nil only while busy
	latest   *doctree.ParsedDocument
	disposed bool
	lastUsed time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithStats records render latencies into stats, which may be shared.
func WithStats(stats *RenderStats) Option {
	return func(s *Session) { s.stats = stats }
}

// NewSession starts a worker for r. onParsed receives every successful
// render, one at a time, on the session's delivery goroutine.
func NewSession(r Renderer, onParsed func(doctree.ParsedDocument), opts ...Option) *Session {
	s := &Session{
		onParsed: onParsed,
		log:      slog.New(slog.DiscardHandler),
		lastUsed: time.Now(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.stats == nil {
		s.stats = NewRenderStats(time.Hour)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.worker = StartWorker(ctx, r, s.log, s.stats)
	go s.deliver(ctx)
	return s
}

// Submit requests a render of doc. It never blocks on rendering.
func (s *Session) Submit(doc doctree.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrDisposed
	}
	s.lastUsed = time.Now()

	if s.busy {
		s.pending = &doc
		return nil
	}
	s.busy = true
	s.dispatchLocked(doc)
	return nil
}

func (s *Session) dispatchLocked(doc doctree.Document) {
	s.worker.Post(Request{Markdown: doc.Text, FileData: doc.Attachments})
}

func (s *Session) deliver(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case reply := <-s.worker.Replies():
			s.handle(reply)
		}
	}
}

func (s *Session) handle(reply Reply) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	var parsed doctree.ParsedDocument
	if reply.Success {
		parsed = doctree.ParsedDocument{
			HTML:     reply.HTML,
			Revision: ContentHashHex([]byte(reply.Request.Markdown)),
		}
		s.latest = &parsed
	}
	s.mu.Unlock()

	if reply.Success {
		if s.onParsed != nil {
			s.onParsed(parsed)
		}
	} else {
		s.log.Warn("render failed, keeping previous preview", "error", reply.Err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if s.pending != nil {
		next := *s.pending
		s.pending = nil
		s.dispatchLocked(next)
		return
	}
	s.busy = false
}

// Dispose terminates the worker. In-flight and pending renders are abandoned
// and their results are never delivered. Safe to call more than once and from
// inside onParsed.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.busy = false
	s.pending = nil
	s.mu.Unlock()

	s.worker.Terminate()
	s.cancel()
}

// Latest returns the most recent successful render.
func (s *Session) Latest() (doctree.ParsedDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return doctree.ParsedDocument{}, false
	}
	return *s.latest, true
}

// Busy reports whether a render is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Touch marks the session as used, keeping it alive for readers that only
// poll Latest.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// LastUsed returns the time of the last submission or Touch.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Stats returns the session's render statistics.
func (s *Session) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Done is closed once the delivery goroutine has exited after Dispose.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
