package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// tempPrefix marks in-progress outputs; such files are never picked up as sources.
const tempPrefix = ".~"

// FindSources lists files in dir that IsSource accepts, descending into
// subdirectories when recursive is set. The result is sorted for a stable
// processing order.
func FindSources(dir, ext string, recursive bool, skipSuffix string) ([]string, error) {
	match := func(name string) bool {
		return IsSource(name, ext, skipSuffix)
	}

	var paths []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read input directory: %w", err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() && match(e.Name()) {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(paths)
		return paths, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && match(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// IsSource reports whether a file name is a source document: its extension
// equals ext (case-insensitive, leading dot optional), its stem does not end
// in skipSuffix (an earlier output) and it is not an in-progress temp file.
func IsSource(name, ext, skipSuffix string) bool {
	if strings.HasPrefix(name, tempPrefix) {
		return false
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	fileExt := filepath.Ext(name)
	if strings.ToLower(fileExt) != ext {
		return false
	}
	stem := strings.TrimSuffix(name, fileExt)
	return skipSuffix == "" || !strings.HasSuffix(stem, skipSuffix)
}

// documentTitle is the file's base name without extension.
func documentTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
