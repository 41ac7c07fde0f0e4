package scrollsync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Side identifies one of the two panes.
type Side int

const (
	SideEditor Side = iota
	SidePreview
)

func (s Side) String() string {
	if s == SidePreview {
		return "preview"
	}
	return "editor"
}

// Synchronizer aligns an editor pane with a preview.
//
// Pane methods are never called with the synchronizer's lock held, so a pane
// may report scroll events back synchronously.
type Synchronizer struct {
	editor  Pane
	preview Preview
	onLine  func(int)
	log     *slog.Logger

	mu           sync.Mutex
	suppressNext bool // drop the next preview scroll event
	dirty        [2]bool
	wake         chan struct{}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithOnLine reports the source line at the top of the preview after each
// user scroll of the preview.
func WithOnLine(fn func(line int)) Option {
	return func(s *Synchronizer) { s.onLine = fn }
}

// WithLogger sets the synchronizer logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Synchronizer) { s.log = log }
}

func New(editor Pane, preview Preview, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		editor:  editor,
		preview: preview,
		log:     slog.New(slog.DiscardHandler),
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EditorScrolled mirrors the editor's relative position onto the preview.
func (s *Synchronizer) EditorScrolled() {
	pct := s.editor.Geometry().Percentage()
	ScrollToPercentage(s.preview, pct)
}

// PreviewScrolled mirrors the preview onto the editor, unless the event was
// caused by JumpToLine, in which case it is swallowed once.
func (s *Synchronizer) PreviewScrolled() {
	s.mu.Lock()
	if s.suppressNext {
		s.suppressNext = false
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	g := s.preview.Geometry()
	ScrollToPercentage(s.editor, g.Percentage())

	if s.onLine == nil {
		return
	}
	if line := LineAt(s.preview.Anchors(), g.ScrollTop); line != NoLine {
		s.onLine(line)
	}
}

// JumpToLine scrolls the preview so the block nearest to line is centered.
// It reports false when there is nothing to jump to.
func (s *Synchronizer) JumpToLine(line int) bool {
	idx, ok := NearestAnchor(AnchorLines(s.preview.Anchors()), line)
	if !ok {
		return false
	}

	s.mu.Lock()
	s.suppressNext = true
	s.mu.Unlock()

	s.log.Debug("jump to line", "line", line, "anchor", idx)
	s.preview.ScrollIntoView(idx, ScrollOptions{Block: AlignCenter, Smooth: true})
	return true
}

// Suppressed reports whether the next preview scroll event will be dropped.
func (s *Synchronizer) Suppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressNext
}

// Notify marks side as scrolled. The sync itself runs on the next Flush,
// so bursts of scroll events cost one sync per frame.
func (s *Synchronizer) Notify(side Side) {
	s.mu.Lock()
	s.dirty[side] = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush runs the syncs marked by Notify. When both panes are dirty the
// editor wins; the mirrored preview sync is then a no-op.
func (s *Synchronizer) Flush() {
	s.mu.Lock()
	editor, preview := s.dirty[SideEditor], s.dirty[SidePreview]
	s.dirty = [2]bool{}
	s.mu.Unlock()

	if editor {
		s.EditorScrolled()
	}
	if preview {
		s.PreviewScrolled()
	}
}

// Run flushes notifications once per frame interval until ctx is done.
func (s *Synchronizer) Run(ctx context.Context, frame time.Duration) {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			pending = true
		case <-ticker.C:
			if pending {
				pending = false
				s.Flush()
			}
		}
	}
}
