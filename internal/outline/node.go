// Package outline reads a document's navigation outline and flattens it into
// leveled table-of-contents entries.
package outline

import "errors"

var (
	// ErrUnreadable is returned when a source document cannot be opened or its
	// outline cannot be parsed.
	ErrUnreadable = errors.New("source document unreadable")

	// ErrUnsupportedFormat is returned when no Reader is registered for a file extension.
	ErrUnsupportedFormat = errors.New("unsupported source format")
)

// Node is one entry of a raw outline.
//
// Page resolution may fail; implementations report that through the boolean
// and never through a panic or error, so a broken destination cannot abort a walk.
type Node interface {
	Title() string
	Page() (int, bool)
	Children() []Node
}

// Entry is one flattened outline item.
type Entry struct {
	Level int    `json:"level" yaml:"level"`                     // 1 = top level
	Title string `json:"title" yaml:"title"`                     // trimmed, NFC-normalized
	Page  int    `json:"page,omitempty" yaml:"page,omitempty"` // 0 when unknown
}

// HasPage reports whether the entry points at a resolved page.
func (e Entry) HasPage() bool {
	return e.Page > 0
}

// Bookmark is a plain in-memory Node.
type Bookmark struct {
	Label   string
	PageNum int // 0 when the destination could not be resolved
	Kids    []Node
}

func (b *Bookmark) Title() string { return b.Label }

func (b *Bookmark) Page() (int, bool) { return b.PageNum, b.PageNum > 0 }

func (b *Bookmark) Children() []Node { return b.Kids }
