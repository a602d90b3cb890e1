package outline

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Flatten walks roots depth-first in pre-order and returns one Entry per node.
// The roots start at level 1 and every nesting step adds exactly one level.
// A nil roots slice yields no entries.
func Flatten(roots []Node) []Entry {
	var entries []Entry

	var walk func(nodes []Node, level int)
	walk = func(nodes []Node, level int) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			page, ok := n.Page()
			if !ok || page < 1 {
				page = 0
			}
			entries = append(entries, Entry{
				Level: level,
				Title: cleanTitle(n.Title()),
				Page:  page,
			})
			walk(n.Children(), level+1)
		}
	}
	walk(roots, 1)

	return entries
}

// cleanTitle trims surrounding whitespace and composes the title into NFC so
// visually equal titles compare equal in the ledger.
func cleanTitle(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
