package outline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Reader opens a source document and returns its raw outline roots.
// A document without any outline returns (nil, nil).
type Reader interface {
	ReadOutline(ctx context.Context, path string) ([]Node, error)
}

// Registry selects a Reader by file extension.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry returns a registry with the PDF and JSON readers installed.
func NewRegistry() *Registry {
	r := &Registry{readers: make(map[string]Reader)}
	r.Register(".pdf", NewPDFReader())
	r.Register(".json", NewJSONReader())
	return r
}

// Register installs reader for ext (case-insensitive, leading dot optional).
func (r *Registry) Register(ext string, reader Reader) {
	r.readers[normalizeExt(ext)] = reader
}

// Supports reports whether a reader is registered for ext.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.readers[normalizeExt(ext)]
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads path with the matching reader and flattens its outline.
// An empty result means the document has no outline.
func (r *Registry) Extract(ctx context.Context, path string) ([]Entry, error) {
	ext := normalizeExt(filepath.Ext(path))
	reader, ok := r.readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	roots, err := reader.ReadOutline(ctx, path)
	if err != nil {
		return nil, err
	}
	return Flatten(roots), nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
