// Package search answers "which icons match this text" over a catalog.
//
// The index is a byte trie holding, for every icon name, each suffix that
// starts on a segment boundary (the start of the name or the byte after a
// hyphen). Every trie node carries a roaring bitmap of the catalog
// positions whose suffixes pass through it, so a query is a walk of
// len(query) edges followed by an in-order iteration of one bitmap.
// Bitmaps iterate in ascending order, which is catalog order.
//
//	idx, err := search.Build(cat)
//	icons, ok := idx.Search("alt") // chat-alt, chat-alt-2
//
// An Index is immutable once built and safe for concurrent use.
package search

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
)

var (
	ErrNilCatalog   = errors.New("nil catalog")
	ErrTooManyIcons = errors.New("catalog exceeds index capacity")
)

// BuildError wraps any failure to construct an index.
type BuildError struct{ Err error }

func (e *BuildError) Error() string { return "build search index: " + e.Err.Error() }
func (e *BuildError) Unwrap() error { return e.Err }

type node struct {
	children map[byte]*node
	postings *roaring.Bitmap
}

func newNode() *node {
	return &node{postings: roaring.New()}
}

func (n *node) child(b byte) (*node, bool) {
	if n.children == nil {
		n.children = make(map[byte]*node)
	}
	c, ok := n.children[b]
	if !ok {
		c = newNode()
		n.children[b] = c
	}
	return c, !ok
}

// Index maps query text to catalog positions. It refers to records by
// position and never copies the catalog.
type Index struct {
	catalog *catalog.Catalog
	root    *node
	nodes   int
}

// Build indexes every name of c. It either returns a complete index or a
// *BuildError.
func Build(c *catalog.Catalog) (*Index, error) {
	if c == nil {
		return nil, &BuildError{Err: ErrNilCatalog}
	}
	if uint64(c.Len()) > math.MaxUint32 {
		return nil, &BuildError{Err: ErrTooManyIcons}
	}

	root := newNode()
	nodes := 1
	seen := make(map[string]int, c.Len())
	for pos, r := range c.Records() {
		name := Normalize(r.Name)
		if name == "" {
			return nil, &BuildError{Err: fmt.Errorf("icon at position %d has an empty name", pos)}
		}
		if first, ok := seen[name]; ok {
			return nil, &BuildError{Err: &catalog.DuplicateNameError{Name: name, First: first, Second: pos}}
		}
		seen[name] = pos

		for _, start := range segmentStarts(name) {
			n := root
			for i := start; i < len(name); i++ {
				var created bool
				n, created = n.child(name[i])
				if created {
					nodes++
				}
				n.postings.Add(uint32(pos))
			}
		}
	}

	optimize(root)
	return &Index{catalog: c, root: root, nodes: nodes}, nil
}

func optimize(n *node) {
	n.postings.RunOptimize()
	for _, c := range n.children {
		optimize(c)
	}
}

// segmentStarts returns the byte offsets at which a segment of name begins.
func segmentStarts(name string) []int {
	starts := []int{0}
	for i := 0; i < len(name)-1; i++ {
		if name[i] == '-' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (ix *Index) lookup(query string) *roaring.Bitmap {
	q := Normalize(query)
	if q == "" {
		return nil
	}
	n := ix.root
	for i := 0; i < len(q); i++ {
		next, ok := n.children[q[i]]
		if !ok {
			return nil
		}
		n = next
	}
	if n.postings.IsEmpty() {
		return nil
	}
	return n.postings
}

// Search returns the icons whose name has a segment starting with query,
// in catalog order. The boolean is false when the query is blank or
// nothing matched; a true result is never empty. Callers choose what a
// blank query displays.
func (ix *Index) Search(query string) ([]catalog.Record, bool) {
	postings := ix.lookup(query)
	if postings == nil {
		return nil, false
	}
	out := make([]catalog.Record, 0, postings.GetCardinality())
	it := postings.Iterator()
	for it.HasNext() {
		out = append(out, ix.catalog.At(int(it.Next())))
	}
	return out, true
}

// Count is the number of icons Search would return.
func (ix *Index) Count(query string) int {
	postings := ix.lookup(query)
	if postings == nil {
		return 0
	}
	return int(postings.GetCardinality())
}

// Catalog returns the catalog the index was built from.
func (ix *Index) Catalog() *catalog.Catalog {
	return ix.catalog
}

// Len returns the number of indexed icons.
func (ix *Index) Len() int {
	return ix.catalog.Len()
}

// Nodes returns the number of trie nodes, root included.
func (ix *Index) Nodes() int {
	return ix.nodes
}
