package compile

import (
	"encoding/json"
	"errors"
	"fmt"
)

const decodeExcerptRadius = 40

// DecodeOutcome parses raw compiler output as an Outcome. When the output is
// not valid JSON, the returned error embeds a bounded excerpt of the raw
// bytes around the failing offset so the corruption stays debuggable rather
// than opaque.
func DecodeOutcome(raw []byte) (Outcome, error) {
	var out Outcome
	err := json.Unmarshal(raw, &out)
	if err == nil {
		return out, nil
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return Outcome{}, fmt.Errorf("decode compiler output: %v near %q", err, excerptAround(raw, int(syntaxErr.Offset)))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Outcome{}, fmt.Errorf("decode compiler output: %v near %q", err, excerptAround(raw, int(typeErr.Offset)))
	}
	return Outcome{}, fmt.Errorf("decode compiler output: %w; output begins %q", err, excerptAround(raw, 0))
}

// excerptAround returns up to decodeExcerptRadius bytes on each side of off.
func excerptAround(raw []byte, off int) string {
	if len(raw) == 0 {
		return ""
	}
	if off < 0 {
		off = 0
	}
	if off > len(raw) {
		off = len(raw)
	}
	lo := off - decodeExcerptRadius
	if lo < 0 {
		lo = 0
	}
	hi := off + decodeExcerptRadius
	if hi > len(raw) {
		hi = len(raw)
	}
	return string(raw[lo:hi])
}
