// Package tree projects a flat id-addressed node table into a nested,
// render-ready tree. The projection is derived and disposable: it is
// recomputed per compilation and never the source of truth.
package tree

import (
	"fmt"

	"github.com/kpumuk/treescope/internal/compile"
)

// ProgramKind is the kind of the synthetic root hosting top-level nodes.
const ProgramKind = "Program"

// ResolvedNode is a FlatNode with child ids replaced by nested nodes, each
// carrying the field name of the edge from its parent. A nil Span means the
// compiler did not annotate the node; a present zero-width span is a real
// position.
type ResolvedNode struct {
	ID        int
	Kind      string
	Span      *compile.Span
	Preview   string
	FieldName string
	Children  []*ResolvedNode
}

// HasSpan reports whether the node carries position information.
func (n *ResolvedNode) HasSpan() bool {
	return n != nil && n.Span != nil
}

func (n *ResolvedNode) String() string {
	if n == nil {
		return "ResolvedNode(nil)"
	}
	span := "none"
	if n.Span != nil {
		span = n.Span.String()
	}
	return fmt.Sprintf("ResolvedNode{id=%d kind=%s span=%s children=%d}", n.ID, n.Kind, span, len(n.Children))
}

// Resolve projects the given roots out of store into nested trees.
//
// Lookup misses resolve to nothing and are filtered from the parent's child
// list. A visited set shared across the traversal guarantees termination on
// cyclic or malformed tables: a re-encountered id resolves to nothing. The
// store is never mutated.
func Resolve(rootIDs []int, store *compile.NodeStore) []*ResolvedNode {
	if store == nil || len(rootIDs) == 0 {
		return nil
	}
	visited := make(map[int]struct{}, len(store.Nodes))
	out := make([]*ResolvedNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		if n := resolveNode(id, "", store, visited); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func resolveNode(id int, fieldName string, store *compile.NodeStore, visited map[int]struct{}) *ResolvedNode {
	flat, ok := store.Node(id)
	if !ok {
		return nil
	}
	if _, seen := visited[id]; seen {
		return nil
	}
	visited[id] = struct{}{}

	node := &ResolvedNode{
		ID:        flat.ID,
		Kind:      flat.Kind,
		Span:      flat.Span,
		Preview:   flat.Preview,
		FieldName: fieldName,
	}
	for _, ref := range flat.Children {
		if child := resolveNode(ref.ID, ref.Field, store, visited); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// ProgramRoot wraps resolved top-level roots in a synthetic node spanning
// the whole source, giving every view a single tree entry point.
func ProgramRoot(children []*ResolvedNode, sourceLen int) *ResolvedNode {
	return &ResolvedNode{
		ID:       0,
		Kind:     ProgramKind,
		Span:     &compile.Span{Start: 0, End: sourceLen},
		Children: children,
	}
}
