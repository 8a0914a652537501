package compile

import (
	"regexp"
	"strconv"
)

// Location is a 1-based source position recovered from an error message.
type Location struct {
	Line int
	Col  int
}

var locationPattern = regexp.MustCompile(`at line (\d+), col (\d+)`)

// ExtractLocation scans an error message for a "at line N, col M" pattern.
// Absence of a match is not an error; the caller simply gets no location.
func ExtractLocation(msg string) (Location, bool) {
	m := locationPattern.FindStringSubmatch(msg)
	if m == nil {
		return Location{}, false
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		return Location{}, false
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return Location{}, false
	}
	return Location{Line: line, Col: col}, true
}
