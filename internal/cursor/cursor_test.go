package cursor

import (
	"testing"
	"time"

	"github.com/kpumuk/treescope/internal/compile"
	"github.com/kpumuk/treescope/internal/text"
	"github.com/kpumuk/treescope/internal/tree"
)

// ladder builds A [0,50] > B [10,20] > C [12,15].
func ladder() *tree.ResolvedNode {
	c := &tree.ResolvedNode{ID: 3, Kind: "C", Span: &compile.Span{Start: 12, End: 15}}
	b := &tree.ResolvedNode{ID: 2, Kind: "B", Span: &compile.Span{Start: 10, End: 20}, Children: []*tree.ResolvedNode{c}}
	return &tree.ResolvedNode{ID: 1, Kind: "A", Span: &compile.Span{Start: 0, End: 50}, Children: []*tree.ResolvedNode{b}}
}

func TestNodeAtOffsetMostSpecific(t *testing.T) {
	t.Parallel()

	a := ladder()

	cases := []struct {
		off  int
		want string
	}{
		{off: 13, want: "C"},
		{off: 25, want: "A"},
		{off: 11, want: "B"},
		{off: 0, want: "A"},
	}
	for _, tc := range cases {
		got := NodeAtOffset(a, tc.off)
		if got == nil || got.Kind != tc.want {
			t.Fatalf("NodeAtOffset(%d) = %v, want kind %s", tc.off, got, tc.want)
		}
	}

	if got := NodeAtOffset(a, 60); got != nil {
		t.Fatalf("NodeAtOffset(60) = %v, want nil", got)
	}
}

func TestNodeAtOffsetClosedBoundaries(t *testing.T) {
	t.Parallel()

	a := ladder()

	// Both exact start and exact end match the node.
	for _, off := range []int{12, 15} {
		got := NodeAtOffset(a, off)
		if got == nil || got.Kind != "C" {
			t.Fatalf("NodeAtOffset(%d) = %v, want C (closed interval)", off, got)
		}
	}
}

func TestNodeAtOffsetSiblingEncounterOrder(t *testing.T) {
	t.Parallel()

	// Two siblings both covering offset 5; first in encounter order wins
	// even though the second is smaller.
	first := &tree.ResolvedNode{ID: 2, Kind: "First", Span: &compile.Span{Start: 0, End: 10}}
	second := &tree.ResolvedNode{ID: 3, Kind: "Second", Span: &compile.Span{Start: 5, End: 6}}
	root := &tree.ResolvedNode{ID: 1, Kind: "Root", Span: &compile.Span{Start: 0, End: 20},
		Children: []*tree.ResolvedNode{first, second}}

	got := NodeAtOffset(root, 5)
	if got == nil || got.Kind != "First" {
		t.Fatalf("NodeAtOffset(5) = %v, want First", got)
	}
}

func TestNodeAtOffsetSpanlessTransparent(t *testing.T) {
	t.Parallel()

	inner := &tree.ResolvedNode{ID: 3, Kind: "Inner", Span: &compile.Span{Start: 2, End: 4}}
	bare := &tree.ResolvedNode{ID: 2, Kind: "Bare", Children: []*tree.ResolvedNode{inner}}
	root := &tree.ResolvedNode{ID: 1, Kind: "Root", Span: &compile.Span{Start: 0, End: 10},
		Children: []*tree.ResolvedNode{bare}}

	got := NodeAtOffset(root, 3)
	if got == nil || got.Kind != "Inner" {
		t.Fatalf("NodeAtOffset(3) = %v, want Inner through span-less parent", got)
	}

	// The span-less node itself never matches.
	got = NodeAtOffset(bare, 3)
	if got == nil || got.Kind != "Inner" {
		t.Fatalf("NodeAtOffset on bare = %v, want Inner", got)
	}
}

func TestNodeAtOffsetZeroWidthAtOrigin(t *testing.T) {
	t.Parallel()

	// A genuine zero-width span at offset 0 is a position, not absence:
	// the node matches offset 0 and yields a highlight.
	missing := &tree.ResolvedNode{ID: 2, Kind: "MissingIdent", Span: &compile.Span{Start: 0, End: 0}}
	root := &tree.ResolvedNode{ID: 1, Kind: "Root", Span: &compile.Span{Start: 0, End: 10},
		Children: []*tree.ResolvedNode{missing}}

	got := NodeAtOffset(root, 0)
	if got == nil || got.Kind != "MissingIdent" {
		t.Fatalf("NodeAtOffset(0) = %v, want MissingIdent", got)
	}
	if _, ok := HighlightFor(missing); !ok {
		t.Fatal("no highlight for zero-width span at offset 0")
	}
}

func TestNodeAtOffsetNil(t *testing.T) {
	t.Parallel()

	if got := NodeAtOffset(nil, 0); got != nil {
		t.Fatalf("NodeAtOffset(nil) = %v", got)
	}
}

func TestHighlightFor(t *testing.T) {
	t.Parallel()

	node := &tree.ResolvedNode{ID: 1, Kind: "Decl", Span: &compile.Span{Start: 3, End: 9}}
	sp, ok := HighlightFor(node)
	if !ok {
		t.Fatal("HighlightFor = no highlight for spanned node")
	}
	if (sp != text.Span{Start: 3, End: 9}) {
		t.Fatalf("highlight = %v, want [3,9)", sp)
	}

	if _, ok := HighlightFor(&tree.ResolvedNode{ID: 0, Kind: "Program"}); ok {
		t.Fatal("HighlightFor = highlight for span-less node")
	}
	if _, ok := HighlightFor(nil); ok {
		t.Fatal("HighlightFor(nil) = highlight")
	}
}

func TestClickGuardWindow(t *testing.T) {
	t.Parallel()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	g := NewClickGuardWithClock(100*time.Millisecond, now)

	if g.SuppressCursor() {
		t.Fatal("fresh guard suppresses")
	}

	g.NoteClick()
	clock = clock.Add(50 * time.Millisecond)
	if !g.SuppressCursor() {
		t.Fatal("cursor not suppressed inside window")
	}

	clock = clock.Add(60 * time.Millisecond)
	if g.SuppressCursor() {
		t.Fatal("cursor still suppressed after window elapsed")
	}
}

func TestClickGuardDefaults(t *testing.T) {
	t.Parallel()

	g := NewClickGuard(0)
	if g.window != DefaultClickWindow {
		t.Fatalf("window = %v, want default", g.window)
	}

	var nilGuard *ClickGuard
	nilGuard.NoteClick()
	if nilGuard.SuppressCursor() {
		t.Fatal("nil guard suppresses")
	}
}
