// Package cursor maps between caret byte offsets and syntax tree nodes,
// in both directions, and arbitrates between click-driven and caret-driven
// selection.
package cursor

import (
	"sync"
	"time"

	"github.com/kpumuk/treescope/internal/text"
	"github.com/kpumuk/treescope/internal/tree"
)

// NodeAtOffset returns the most specific node whose span covers off, with
// containment inclusive on both ends (span.start <= off <= span.end).
//
// The descent is depth-first and first-match-wins: the first child covering
// the offset takes precedence over the current node, and ties among siblings
// go to encounter order, not span size. Nodes without a span cannot match
// themselves but stay transparent so matching descendants are still found.
func NodeAtOffset(root *tree.ResolvedNode, off int) *tree.ResolvedNode {
	if root == nil {
		return nil
	}
	if root.HasSpan() && !root.Span.Covers(off) {
		return nil
	}
	for _, child := range root.Children {
		if match := NodeAtOffset(child, off); match != nil {
			return match
		}
	}
	if !root.HasSpan() {
		return nil
	}
	return root
}

// HighlightFor projects a node's span into a highlight range for the source
// view. Nodes without a span yield no highlight.
func HighlightFor(node *tree.ResolvedNode) (text.Span, bool) {
	if !node.HasSpan() {
		return text.Span{}, false
	}
	return text.Span{
		Start: text.ByteOffset(node.Span.Start),
		End:   text.ByteOffset(node.Span.End),
	}, true
}

// DefaultClickWindow is how long a direct node click suppresses the next
// cursor-driven re-selection, so programmatic caret movement does not
// immediately overwrite an explicit tree click.
const DefaultClickWindow = 100 * time.Millisecond

// ClickGuard tracks the suppression window after a direct node click.
// The zero value is not usable; construct with NewClickGuard.
type ClickGuard struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	lastClick time.Time
}

// NewClickGuard creates a guard with the given window. A non-positive
// window falls back to DefaultClickWindow.
func NewClickGuard(window time.Duration) *ClickGuard {
	if window <= 0 {
		window = DefaultClickWindow
	}
	return &ClickGuard{window: window, now: time.Now}
}

// NewClickGuardWithClock creates a guard with an injected clock for tests.
func NewClickGuardWithClock(window time.Duration, now func() time.Time) *ClickGuard {
	g := NewClickGuard(window)
	if now != nil {
		g.now = now
	}
	return g
}

// NoteClick records a direct node-click selection.
func (g *ClickGuard) NoteClick() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.lastClick = g.now()
	g.mu.Unlock()
}

// SuppressCursor reports whether a cursor-driven re-selection arriving now
// should be ignored.
func (g *ClickGuard) SuppressCursor() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastClick.IsZero() {
		return false
	}
	return g.now().Sub(g.lastClick) < g.window
}
