package session

import (
	"github.com/kpumuk/treescope/internal/compile"
	"github.com/kpumuk/treescope/internal/diffspan"
	"github.com/kpumuk/treescope/internal/text"
	"github.com/kpumuk/treescope/internal/tree"
)

// Result is the single source of truth for one completed compile pass. It
// fully replaces the previous result; derived caches and resolved trees are
// built before the result is published, so no view ever observes a result
// whose caches are not yet populated. Immutable after publication.
type Result struct {
	Source string

	// Err is set when the pass failed (transport or compiler-reported).
	// A failed result carries no partial tree data. ErrSpan, when a
	// location was extractable, is the source range to highlight: the
	// reported column to the end of its line.
	Err     string
	ErrLoc  *compile.Location
	ErrSpan *text.Span

	Tokens []compile.Token // mate relation completed in both directions

	Surface      *compile.NodeStore
	Lowered      *compile.NodeStore
	SurfaceNodes map[int]compile.FlatNode
	LoweredNodes map[int]compile.FlatNode
	SurfaceTree  *tree.ResolvedNode
	LoweredTree  *tree.ResolvedNode

	Formatted              string
	FormattedTokens        []compile.Token
	FormattedVirtual       string
	FormattedVirtualTokens []compile.Token
	FormattedFix           string
	FormattedFixTokens     []compile.Token

	// VirtualSemis marks semicolons the formatter materialized in the
	// virtual rendering; FixInserted marks every token the fix rendering
	// added. Spans index into the respective formatted text.
	VirtualSemis []diffspan.Labeled
	FixInserted  []diffspan.Labeled

	Recovery []compile.RecoveryRecord
}

// OK reports whether the pass completed without error.
func (r *Result) OK() bool {
	return r != nil && r.Err == ""
}

// Tree returns the resolved tree for the requested variant, surface by
// default.
func (r *Result) Tree(lowered bool) *tree.ResolvedNode {
	if r == nil {
		return nil
	}
	if lowered {
		return r.LoweredTree
	}
	return r.SurfaceTree
}

// buildResult derives every cache and projection from a decoded outcome.
func buildResult(source string, out compile.Outcome) *Result {
	if !out.Success {
		return failedResult(source, out.Error)
	}

	res := &Result{
		Source:                 source,
		Tokens:                 compile.CompleteMates(out.Tokens),
		Surface:                out.SurfaceNodeStore,
		Lowered:                out.LoweredNodeStore,
		Formatted:              out.Formatted,
		FormattedTokens:        out.FormattedTokens,
		FormattedVirtual:       out.FormattedVirtual,
		FormattedVirtualTokens: out.FormattedVirtualTokens,
		FormattedFix:           out.FormattedFix,
		FormattedFixTokens:     out.FormattedFixTokens,
		Recovery:               out.Recovery,
	}
	if res.Surface != nil {
		res.SurfaceNodes = nodeCache(res.Surface)
		res.SurfaceTree = tree.ProgramRoot(tree.Resolve(res.Surface.Roots, res.Surface), len(source))
	}
	if res.Lowered != nil {
		res.LoweredNodes = nodeCache(res.Lowered)
		res.LoweredTree = tree.ProgramRoot(tree.Resolve(res.Lowered.Roots, res.Lowered), len(source))
	}
	if len(out.FormattedVirtualTokens) > 0 {
		res.VirtualSemis = diffspan.InsertedSpans(res.Tokens, out.FormattedVirtualTokens, diffspan.IsSemi, "virtual semicolon")
	}
	if len(out.FormattedFixTokens) > 0 {
		res.FixInserted = diffspan.InsertedSpans(res.Tokens, out.FormattedFixTokens, diffspan.Any, "inserted")
	}
	return res
}

func failedResult(source, msg string) *Result {
	if msg == "" {
		msg = "compile failed"
	}
	res := &Result{Source: source, Err: msg}
	if loc, ok := compile.ExtractLocation(msg); ok {
		res.ErrLoc = &loc
		res.ErrSpan = errorSpan(source, loc)
	}
	return res
}

// errorSpan projects a 1-based line/col location onto the source. A column
// pointing at or past the end of the line widens to the whole line so the
// highlight never collapses to nothing.
func errorSpan(source string, loc compile.Location) *text.Span {
	li := text.NewLineIndex([]byte(source))
	line := loc.Line - 1
	lineSpan, err := li.LineSpan(line)
	if err != nil {
		return nil
	}
	off, err := li.PointToOffset(text.Point{Line: line, Column: loc.Col - 1})
	if err != nil {
		return &lineSpan
	}
	span, err := text.NewSpan(off, lineSpan.End)
	if err != nil || span.IsEmpty() {
		return &lineSpan
	}
	return &span
}

// nodeCache fully rebuilds the id lookup table for one store. Writers
// replace rather than mutate, so readers never see a half-updated cache.
func nodeCache(store *compile.NodeStore) map[int]compile.FlatNode {
	out := make(map[int]compile.FlatNode, len(store.Nodes))
	for id, n := range store.Nodes {
		out[id] = n
	}
	return out
}
