// Command mdwatch renders a markdown file to an HTML preview and re-renders
// it on every save.
package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/notedit/internal/config"
	"github.com/dgallion1/notedit/internal/doctree"
	"github.com/dgallion1/notedit/internal/outline"
	"github.com/dgallion1/notedit/internal/pipeline"
	"github.com/dgallion1/notedit/internal/render"
	"github.com/dgallion1/notedit/internal/watch"
)

func main() {
	in := flag.String("in", "", "markdown file to watch")
	out := flag.String("out", "preview.html", "HTML file to write")
	showOutline := flag.Bool("outline", false, "log the heading outline on every change")
	attach := flag.Bool("attachments", true, "resolve links against files next to the input")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: mdwatch -in note.md [-out preview.html] [-outline]")
		os.Exit(2)
	}

	if err := run(*in, *out, *showOutline, *attach, log); err != nil {
		log.Error("mdwatch failed", "error", err)
		os.Exit(1)
	}
}

func run(in, out string, showOutline, attach bool, log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if unknown := render.UnknownExtensions(cfg.MarkdownExtensions); len(unknown) > 0 {
		log.Warn("ignoring unknown markdown extensions", "names", unknown)
	}
	renderer := render.New(render.Options{
		Extensions: cfg.MarkdownExtensions,
		HardWraps:  cfg.HardWraps,
	})

	session := pipeline.NewSession(renderer, func(p doctree.ParsedDocument) {
		if err := writePreview(out, filepath.Base(in), p); err != nil {
			log.Warn("writing preview", "path", out, "error", err)
			return
		}
		log.Info("preview updated", "path", out, "revision", p.Revision[:12])
	}, pipeline.WithLogger(log))
	defer session.Dispose()

	opts := []watch.Option{watch.WithLogger(log)}
	if attach {
		opts = append(opts, watch.WithAttachmentDir(filepath.Dir(in), out))
	}
	if showOutline {
		opts = append(opts, watch.WithOnLoad(func(doc doctree.Document) {
			logOutline(log, doc.Text)
		}))
	}

	w, err := watch.New(in, session, opts...)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("watching", "in", in, "out", out)
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down...")
			return nil
		case err := <-w.Errors():
			log.Warn("watch error", "error", err)
		}
	}
}

func logOutline(log *slog.Logger, text string) {
	for _, e := range outline.Flatten(outline.Extract(text, nil)) {
		log.Info("heading",
			"line", e.Node.SourceLine,
			"depth", e.Depth,
			"label", e.Node.Label,
			"separator", e.Node.SeparatorBefore,
		)
	}
}

// writePreview replaces out atomically so a browser never sees a half-written
// page.
func writePreview(out, title string, p doctree.ParsedDocument) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	fmt.Fprintf(&b, "<meta name=\"revision\" content=\"%s\">", p.Revision)
	b.WriteString("</head><body>\n")
	b.WriteString(p.HTML)
	b.WriteString("</body></html>\n")

	tmp, err := os.CreateTemp(filepath.Dir(out), ".mdwatch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), out)
}
