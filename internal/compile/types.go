// Package compile defines the wire-level contract with the external compiler:
// tokens, flat node stores, recovery records, and the Outcome envelope
// returned by every transport binding.
package compile

import (
	"context"
	"fmt"
)

// Stage selects how far the compiler pipeline runs.
type Stage string

// Stage values accepted by the compile contract.
const (
	StageParse Stage = "parse"
	StageLower Stage = "lower"
	StageInfer Stage = "infer"
	StageAll   Stage = "all"
)

// Valid reports whether the stage is one of the contract values.
func (s Stage) Valid() bool {
	switch s {
	case StageParse, StageLower, StageInfer, StageAll:
		return true
	}
	return false
}

// TokenKind identifies the syntactic category of a token. The vocabulary is
// owned by the external compiler; only the kinds below carry meaning here.
type TokenKind string

// Token kinds the playground logic depends on.
const (
	KindEOF         TokenKind = "Eof"
	KindLineComment TokenKind = "LineComment"
	KindSemi        TokenKind = "Semi"
)

// IsCosmetic reports whether the kind is display-only and excluded from
// formatter alignment (end-of-input markers and line comments).
func (k TokenKind) IsCosmetic() bool {
	return k == KindEOF || k == KindLineComment
}

// Span is a wire-form byte range into the active source text. Line and Col
// are optional display annotations supplied by some compiler stages.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Line  int `json:"line,omitempty"`
	Col   int `json:"col,omitempty"`
}

// Covers reports whether off lies within the span, inclusive on both ends.
// This is the node-selection convention: span.start <= off <= span.end.
func (s Span) Covers(off int) bool {
	return s.Start <= off && off <= s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d]", s.Start, s.End)
}

// Token is one lexed token. Mate, when present on a bracket-class token,
// is the byte offset (not index) of the structurally paired bracket.
// Tokens are immutable once received; a new compilation produces an
// entirely new token list.
type Token struct {
	Kind TokenKind `json:"kind"`
	Text string    `json:"text,omitempty"`
	Span Span      `json:"span"`
	Mate *int      `json:"mate,omitempty"`
}

// ChildRef is a labeled edge from a parent node to a child id.
type ChildRef struct {
	Field string `json:"field"`
	ID    int    `json:"id"`
}

// FlatNode is the wire form of a syntax node: children are id references
// into the owning NodeStore, not nested structures. Span is a pointer so a
// node the compiler did not annotate is distinguishable from a genuine
// zero-width span at offset 0.
type FlatNode struct {
	ID       int        `json:"id"`
	Kind     string     `json:"kind"`
	Span     *Span      `json:"span,omitempty"`
	Preview  string     `json:"preview,omitempty"`
	Children []ChildRef `json:"children,omitempty"`
}

// NodeStore is a flat id-addressed node table with top-level roots.
// Ids are unique within one store but not stable across compilations.
type NodeStore struct {
	Roots []int            `json:"roots"`
	Nodes map[int]FlatNode `json:"nodes"`
}

// Node returns the node for id and whether it exists.
func (s *NodeStore) Node(id int) (FlatNode, bool) {
	if s == nil {
		return FlatNode{}, false
	}
	n, ok := s.Nodes[id]
	return n, ok
}

// RecoveryRecord describes one parser-recovery action taken by the compiler.
type RecoveryRecord struct {
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
	Span     Span   `json:"span"`
}

// Outcome is the envelope every compile transport returns. Exactly one of
// Success or Error holds; fields on a successful outcome may still be
// individually absent if that pipeline stage produced nothing.
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Tokens           []Token    `json:"tokens,omitempty"`
	SurfaceNodeStore *NodeStore `json:"surfaceNodeStore,omitempty"`
	LoweredNodeStore *NodeStore `json:"loweredNodeStore,omitempty"`

	Formatted              string  `json:"formatted,omitempty"`
	FormattedTokens        []Token `json:"formattedTokens,omitempty"`
	FormattedVirtual       string  `json:"formattedVirtual,omitempty"`
	FormattedVirtualTokens []Token `json:"formattedVirtualTokens,omitempty"`
	FormattedFix           string  `json:"formattedFix,omitempty"`
	FormattedFixTokens     []Token `json:"formattedFixTokens,omitempty"`

	Recovery []RecoveryRecord `json:"recovery,omitempty"`
}

// Client is the compile boundary: an opaque function of source text.
// Implementations must be side-effect free with respect to the caller;
// a transport failure is returned as an error, a compiler-reported source
// error arrives as a decoded Outcome with Success=false.
type Client interface {
	Compile(ctx context.Context, source string, stage Stage) (Outcome, error)
}
