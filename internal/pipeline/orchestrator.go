package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/notedit/internal/config"
)

// Orchestrator owns the shared renderer, render stats and the session
// registry behind the HTTP API.
type Orchestrator struct {
	sessions *Registry
	renderer Renderer
	stats    *RenderStats
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(cfg config.Config, renderer Renderer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: NewRegistry(cfg.SessionTTL, cfg.MaxSessions),
		renderer: renderer,
		stats:    NewRenderStats(cfg.StatsWindow),
		log:      log,
		cfg:      cfg,
	}
}

// Start launches idle-session cleanup.
func (o *Orchestrator) Start(ctx context.Context) {
	cleanupCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if n := o.sessions.Cleanup(); n > 0 {
					o.log.Info("evicted idle sessions", "count", n)
				}
			}
		}
	}()
}

// Stop halts cleanup and disposes every session.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.sessions.Close()
}

// OpenSession creates and registers a session rendering with the shared
// renderer. Results are read back with Session.Latest.
func (o *Orchestrator) OpenSession() (string, *Session, error) {
	id := uuid.NewString()
	s := NewSession(o.renderer, nil, WithStats(o.stats), WithLogger(o.log.With("session_id", id)))
	if err := o.sessions.Add(id, s); err != nil {
		s.Dispose()
		return "", nil, err
	}
	return id, s, nil
}

// Session returns a registered session.
func (o *Orchestrator) Session(id string) (*Session, error) {
	return o.sessions.Get(id)
}

// CloseSession disposes a registered session.
func (o *Orchestrator) CloseSession(id string) error {
	return o.sessions.Remove(id)
}

// SessionCount returns the number of live sessions.
func (o *Orchestrator) SessionCount() int {
	return o.sessions.Len()
}

// Renderer returns the shared renderer for synchronous renders.
func (o *Orchestrator) Renderer() Renderer {
	return o.renderer
}

// Stats returns render statistics across all sessions.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}
