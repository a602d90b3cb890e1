package outline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

// PDFReader reads PDF bookmarks with pdfcpu.
type PDFReader struct{}

// NewPDFReader returns a PDF outline reader. pdfcpu's on-disk configuration
// directory is disabled; the reader always runs with the default relaxed config.
func NewPDFReader() *PDFReader {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFReader{}
}

// ReadOutline returns the bookmark hierarchy of the PDF at path. Every outline
// item is kept, including items without a title, without a destination or
// with a non-GoTo action; their pages resolve as unknown.
func (r *PDFReader) ReadOutline(ctx context.Context, path string) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.Cmd = model.LISTBOOKMARKS

	pdfCtx, err := api.ReadAndValidate(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if pdfCtx.Outlines == nil {
		return nil, nil
	}

	// Named destinations live in the Dests name tree; without it they resolve as unknown pages.
	_ = pdfCtx.LocateNameTree("Dests", false)

	nodes, err := walkOutline(pdfCtx, pdfCtx.Outlines.IndirectRefEntry("First"), map[int]bool{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return nodes, nil
}

// walkOutline follows an outline item chain via Next, descending through First.
// seen guards against cycles in damaged files.
func walkOutline(ctx *model.Context, item *types.IndirectRef, seen map[int]bool) ([]Node, error) {
	var nodes []Node
	for ir := item; ir != nil; {
		objNr := ir.ObjectNumber.Value()
		if seen[objNr] {
			break
		}
		seen[objNr] = true

		d, err := ctx.DereferenceDict(*ir)
		if err != nil {
			return nil, fmt.Errorf("failed to read outline item %d: %w", objNr, err)
		}
		if d == nil {
			break
		}

		n := &pdfNode{ctx: ctx, dict: d, title: itemTitle(ctx, d)}
		if first := d.IndirectRefEntry("First"); first != nil {
			if n.kids, err = walkOutline(ctx, first, seen); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, n)
		ir = d.IndirectRefEntry("Next")
	}
	return nodes, nil
}

// itemTitle decodes the Title entry; an unreadable title is empty.
func itemTitle(ctx *model.Context, d types.Dict) string {
	obj, err := ctx.Dereference(d["Title"])
	if err != nil || obj == nil {
		return ""
	}
	var s string
	switch v := obj.(type) {
	case types.Name:
		s = v.Value()
	default:
		if s, err = model.Text(obj); err != nil {
			return ""
		}
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

type pdfNode struct {
	ctx   *model.Context
	dict  types.Dict
	title string
	kids  []Node
}

func (n *pdfNode) Title() string { return n.title }

func (n *pdfNode) Children() []Node { return n.kids }

// Page resolves the item's Dest, or the D entry of a GoTo action, to a
// 1-based page number. Anything else is an unknown page.
func (n *pdfNode) Page() (int, bool) {
	dest, ok := n.dict["Dest"]
	if !ok {
		act, err := n.ctx.Dereference(n.dict["A"])
		if err != nil {
			return 0, false
		}
		ad, ok := act.(types.Dict)
		if !ok {
			return 0, false
		}
		if s := ad.NameEntry("S"); s == nil || *s != "GoTo" {
			return 0, false
		}
		dest = ad["D"]
	}

	arr, ok := n.destArray(dest)
	if !ok || len(arr) == 0 {
		return 0, false
	}

	switch target := arr[0].(type) {
	case types.IndirectRef:
		page, err := n.ctx.PageNumber(target.ObjectNumber.Value())
		if err != nil || page < 1 {
			return 0, false
		}
		return page, true
	case types.Integer:
		// Some producers write a zero-based page index instead of a page reference.
		if page := target.Value() + 1; page >= 1 && page <= n.ctx.PageCount {
			return page, true
		}
	}
	return 0, false
}

// destArray resolves explicit and named destinations to a destination array.
func (n *pdfNode) destArray(dest types.Object) (types.Array, bool) {
	obj, err := n.ctx.Dereference(dest)
	if err != nil || obj == nil {
		return nil, false
	}

	var name string
	switch v := obj.(type) {
	case types.Array:
		return v, true
	case types.Dict:
		arr := v.ArrayEntry("D")
		return arr, arr != nil
	case types.Name:
		name = v.Value()
	case types.StringLiteral:
		if name, err = types.StringLiteralToString(v); err != nil {
			return nil, false
		}
	case types.HexLiteral:
		if name, err = types.HexLiteralToString(v); err != nil {
			return nil, false
		}
	default:
		return nil, false
	}

	arr, err := n.ctx.DereferenceDestArray(name)
	if err != nil {
		return nil, false
	}
	return arr, true
}
