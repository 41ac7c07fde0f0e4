package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/notedit/internal/doctree"
)

// Renderer converts markdown plus attachment metadata into preview HTML.
type Renderer interface {
	Render(ctx context.Context, markdown string, files []doctree.FileRef) (string, error)
}

// Request is the message posted to a worker.
type Request struct {
	Markdown string
	FileData []doctree.FileRef
}

// Reply is the worker's answer to a single Request.
type Reply struct {
	Request Request
	Success bool
	HTML    string
	Err     error
}

// Worker owns a Renderer and runs it on its own goroutine. It is reachable
// only through Post and Replies.
type Worker struct {
	renderer Renderer
	log      *slog.Logger
	stats    *RenderStats

	requests chan Request
	replies  chan Reply

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// StartWorker launches a worker goroutine that lives until Terminate or until
// ctx is cancelled.
func StartWorker(ctx context.Context, r Renderer, log *slog.Logger, stats *RenderStats) *Worker {
	workerCtx, cancel := context.WithCancel(ctx)
	w := &Worker{
		renderer: r,
		log:      log,
		stats:    stats,
		requests: make(chan Request, 1),
		replies:  make(chan Reply, 1),
		ctx:      workerCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case req := <-w.requests:
			reply := w.render(req)
			select {
			case w.replies <- reply:
			case <-w.ctx.Done():
				return
			}
		}
	}
}

// render never lets a renderer failure or panic escape the worker.
func (w *Worker) render(req Request) (reply Reply) {
	reply.Request = req
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			reply.Success = false
			reply.Err = fmt.Errorf("renderer panic: %v", p)
		}
		if w.stats != nil {
			w.stats.Record(time.Since(start).Milliseconds(), reply.Success)
		}
	}()

	html, err := w.renderer.Render(w.ctx, req.Markdown, req.FileData)
	if err != nil {
		reply.Err = err
		return reply
	}
	reply.Success = true
	reply.HTML = html
	return reply
}

// Post hands a request to the worker. It reports false if the worker has
// been terminated.
func (w *Worker) Post(req Request) bool {
	if w.ctx.Err() != nil {
		return false
	}
	select {
	case w.requests <- req:
		return true
	case <-w.ctx.Done():
		return false
	}
}

// Replies delivers one Reply per posted Request, in order.
func (w *Worker) Replies() <-chan Reply {
	return w.replies
}

// Terminate stops the worker. A render already running finishes on its own,
// but its reply is discarded.
func (w *Worker) Terminate() {
	w.cancel()
}

// Done is closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}
