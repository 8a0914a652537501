package compile

// CompleteMates returns a token list in which the bracket-mate relation is
// symmetric: if token A records B's start offset as its mate, B records A's
// start offset in return. Upstream compilers commonly emit only one
// direction. The input slice is not modified; mates referencing an offset
// with no token are left as received.
func CompleteMates(tokens []Token) []Token {
	if len(tokens) == 0 {
		return tokens
	}

	byStart := make(map[int]int, len(tokens))
	for i, tok := range tokens {
		byStart[tok.Span.Start] = i
	}

	out := make([]Token, len(tokens))
	copy(out, tokens)

	for i := range out {
		mate := out[i].Mate
		if mate == nil {
			continue
		}
		j, ok := byStart[*mate]
		if !ok || j == i {
			continue
		}
		if out[j].Mate == nil {
			back := out[i].Span.Start
			out[j].Mate = &back
		}
	}
	return out
}
