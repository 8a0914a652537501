// Package diffspan aligns an original token sequence against formatter
// output to find inserted/virtual tokens for visual diffing.
package diffspan

import "github.com/kpumuk/treescope/internal/compile"

// Labeled is an inserted-token span with its display label.
type Labeled struct {
	Span  compile.Span `json:"span"`
	Label string       `json:"label"`
}

// InsertedSpans walks the formatted sequence with a single cursor into the
// original sequence. A formatted token whose (kind, text) pair equals the
// original cursor token is aligned and advances the cursor; anything else
// that satisfies pred is recorded as inserted with the given label.
//
// Cosmetic tokens (end-of-input markers, line comments) are dropped from
// both sequences before alignment.
//
// This is a greedy one-pass alignment, not an optimal diff: it assumes the
// formatter only inserts tokens and never reorders or deletes compared
// ones. Formatters that reorder are out of contract.
func InsertedSpans(original, formatted []compile.Token, pred func(compile.Token) bool, label string) []Labeled {
	orig := dropCosmetic(original)

	var out []Labeled
	cursor := 0
	for _, tok := range dropCosmetic(formatted) {
		if cursor < len(orig) && aligned(orig[cursor], tok) {
			cursor++
			continue
		}
		if pred != nil && pred(tok) {
			out = append(out, Labeled{Span: tok.Span, Label: label})
		}
	}
	return out
}

// IsSemi matches inserted semicolons.
func IsSemi(t compile.Token) bool {
	return t.Kind == compile.KindSemi
}

// Any matches every candidate token.
func Any(compile.Token) bool {
	return true
}

func aligned(a, b compile.Token) bool {
	return a.Kind == b.Kind && a.Text == b.Text
}

func dropCosmetic(tokens []compile.Token) []compile.Token {
	out := make([]compile.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind.IsCosmetic() {
			continue
		}
		out = append(out, t)
	}
	return out
}
