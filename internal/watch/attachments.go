package watch

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/notedit/internal/doctree"
)

// DirAttachments lists the regular non-markdown files in dir as attachments
// addressed by file URL. Hidden files and the paths in exclude are skipped.
func DirAttachments(dir string, exclude ...string) ([]doctree.FileRef, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", absDir, err)
	}

	skip := excludeSet(exclude)
	var files []doctree.FileRef
	for _, entry := range entries {
		path := filepath.Join(absDir, entry.Name())
		if !entry.Type().IsRegular() || !attachable(path, skip) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, doctree.FileRef{
			ID:       entry.Name(),
			Name:     entry.Name(),
			URL:      (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
			MimeType: mime.TypeByExtension(filepath.Ext(entry.Name())),
			Size:     info.Size(),
		})
	}
	return files, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// attachable reports whether path may be listed as an attachment.
func attachable(path string, skip map[string]bool) bool {
	name := filepath.Base(path)
	return !strings.HasPrefix(name, ".") && !isMarkdown(name) && !skip[path]
}

func excludeSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = true
		}
	}
	return set
}
