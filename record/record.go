// Package record parses the lines of a sorted store file.
//
// A line is `<path>|<attributes>`: a slash separated node path followed by
// a JSON object holding the node's properties. Lines are sorted in
// pre-order, so a parent is immediately followed by its first child.
package record

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates the path from the attribute payload.
const Delimiter = '|'

// ErrMalformed is returned for lines that are not `<path>|<attributes>`.
var ErrMalformed = errors.New("malformed record")

// Record is one parsed line. Attributes is the raw payload, undecoded.
type Record struct {
	Path       string
	Attributes string
}

// Parse splits a line (without its terminator) into path and payload.
func Parse(line string) (Record, error) {
	i := strings.IndexByte(line, Delimiter)
	if i <= 0 {
		return Record{}, fmt.Errorf("%w: %.64q", ErrMalformed, line)
	}
	path := line[:i]
	if path[0] != '/' {
		return Record{}, fmt.Errorf("%w: path %q is not absolute", ErrMalformed, path)
	}
	return Record{Path: path, Attributes: line[i+1:]}, nil
}

// Depth returns the number of path segments. The root "/" has depth 0.
func (r Record) Depth() int { return Depth(r.Path) }

// Depth returns the number of non-empty segments of path.
func Depth(path string) int {
	n := 0
	inSegment := false
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			inSegment = false
			continue
		}
		if !inSegment {
			n++
			inSegment = true
		}
	}
	return n
}

// TrimTerminator strips a trailing "\n" or "\r\n" from line.
func TrimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
