package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/notedit/internal/config"
	"github.com/dgallion1/notedit/internal/doctree"
)

type echoRenderer struct{}

func (echoRenderer) Render(_ context.Context, markdown string, _ []doctree.FileRef) (string, error) {
	return "<p>" + markdown + "</p>", nil
}

func TestContentHashHex_Consistency(t *testing.T) {
	h := ContentHashHex([]byte("hello world"))
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
	if ContentHashHex([]byte("aaa")) == ContentHashHex([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}

func TestRegistry_AddGetRemove(t *testing.T) {
	reg := NewRegistry(time.Hour, 0)
	s := NewSession(echoRenderer{}, nil)

	if err := reg.Add("a", s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := reg.Get("a")
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if _, err := reg.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if err := reg.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !s.Disposed() {
		t.Error("expected removed session to be disposed")
	}
	if err := reg.Remove("a"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second remove, got %v", err)
	}
}

func TestRegistry_MaxSessions(t *testing.T) {
	reg := NewRegistry(time.Hour, 1)
	defer reg.Close()

	if err := reg.Add("a", NewSession(echoRenderer{}, nil)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	extra := NewSession(echoRenderer{}, nil)
	defer extra.Dispose()
	if err := reg.Add("b", extra); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("expected ErrTooManySessions, got %v", err)
	}
}

func TestRegistry_CleanupEvictsIdle(t *testing.T) {
	reg := NewRegistry(10*time.Millisecond, 0)
	old := NewSession(echoRenderer{}, nil)
	if err := reg.Add("old", old); err != nil {
		t.Fatal(err)
	}

	time.Sleep(25 * time.Millisecond)

	fresh := NewSession(echoRenderer{}, nil)
	if err := reg.Add("fresh", fresh); err != nil {
		t.Fatal(err)
	}

	if n := reg.Cleanup(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if !old.Disposed() {
		t.Error("expected evicted session to be disposed")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", reg.Len())
	}

	reg.Close()
	if !fresh.Disposed() || reg.Len() != 0 {
		t.Error("expected Close to dispose every session")
	}
}

func TestRegistry_GetKeepsSessionAlive(t *testing.T) {
	reg := NewRegistry(40*time.Millisecond, 0)
	defer reg.Close()
	s := NewSession(echoRenderer{}, nil)
	if err := reg.Add("reader", s); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		time.Sleep(25 * time.Millisecond)
		if _, err := reg.Get("reader"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}

	if n := reg.Cleanup(); n != 0 {
		t.Fatalf("expected polled session to survive, %d evicted", n)
	}
	if s.Disposed() {
		t.Error("expected polled session to stay open")
	}
}

func TestOrchestrator_SessionLifecycle(t *testing.T) {
	cfg := config.Defaults()
	o := NewOrchestrator(cfg, echoRenderer{}, slog.New(slog.DiscardHandler))
	o.Start(context.Background())
	defer o.Stop()

	id, s, err := o.OpenSession()
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if err := s.Submit(doctree.Document{Text: "hi"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if p, ok := s.Latest(); ok {
			if p.HTML != "<p>hi</p>" {
				t.Fatalf("unexpected html %q", p.HTML)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("render never delivered")
		}
		time.Sleep(time.Millisecond)
	}

	if o.Stats().Count != 1 {
		t.Fatalf("expected shared stats count=1, got %d", o.Stats().Count)
	}
	if o.SessionCount() != 1 {
		t.Fatalf("expected 1 session, got %d", o.SessionCount())
	}
	if err := o.CloseSession(id); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if _, err := o.Session(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
