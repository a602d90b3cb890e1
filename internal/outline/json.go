package outline

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed outline.schema.json
var outlineSchema []byte

// JSONReader reads outline sidecar files. Three shapes are accepted:
//
//	[{"title": "A", "page": 1}, [{"title": "A.1", "page": 2}]]   sibling lists
//	{"title": "A", "page": 1, "kids": [...]}                     single node
//	{"bookmarks": [...]}                                          pdfcpu export
//
// Lists may appear as a node's "kids" or right after the node; both forms mix freely.
type JSONReader struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewJSONReader returns a reader validating against the embedded outline schema.
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

func (r *JSONReader) compile() (*jsonschema.Schema, error) {
	r.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("outline.schema.json", bytes.NewReader(outlineSchema)); err != nil {
			r.err = fmt.Errorf("failed to load outline schema: %w", err)
			return
		}
		r.schema, r.err = compiler.Compile("outline.schema.json")
		if r.err != nil {
			r.err = fmt.Errorf("failed to compile outline schema: %w", r.err)
		}
	})
	return r.schema, r.err
}

// ReadOutline parses and validates the JSON outline at path.
func (r *JSONReader) ReadOutline(ctx context.Context, path string) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return r.Parse(data)
}

// Parse decodes a JSON outline document.
func (r *JSONReader) Parse(data []byte) ([]Node, error) {
	schema, err := r.compile()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrUnreadable, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: outline does not match schema: %v", ErrUnreadable, err)
	}

	switch v := doc.(type) {
	case []any:
		return jsonSequence(v).Nodes(), nil
	case map[string]any:
		if bms, ok := v["bookmarks"].([]any); ok {
			return jsonSequence(bms).Nodes(), nil
		}
		return []Node{jsonNode(v)}, nil
	}
	return nil, nil
}

func jsonSequence(items []any) Sequence {
	seq := make(Sequence, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case map[string]any:
			seq = append(seq, N(jsonNode(v)))
		case []any:
			seq = append(seq, Item{Group: jsonSequence(v)})
		}
	}
	return seq
}

func jsonNode(m map[string]any) Node {
	b := &Bookmark{}
	b.Label, _ = m["title"].(string)
	if p, ok := m["page"].(float64); ok && p >= 1 {
		b.PageNum = int(p)
	}
	if kids, ok := m["kids"].([]any); ok {
		b.Kids = jsonSequence(kids).Nodes()
	}
	return b
}
