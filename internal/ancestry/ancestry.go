// Package ancestry tracks the categories of the ancestors of the record at
// the current position of a pre-order sorted stream.
package ancestry

import (
	"errors"
	"fmt"
)

// ErrDepthJump is returned in strict mode when a record is more than one
// level deeper than its predecessor, which cannot happen in pre-order input.
var ErrDepthJump = errors.New("depth increased by more than one level")

// Tracker holds one category per depth. After Update(depth, c) the stack
// has depth entries (the root record is the exception: it is pushed at
// depth 0 and replaced by the first depth-1 record).
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	stack  []string
	strict bool
}

// New returns an empty tracker. A strict tracker rejects depth jumps
// instead of silently producing a shorter stack.
func New(strict bool) *Tracker {
	return &Tracker{stack: make([]string, 0, 32), strict: strict}
}

// Update records the category of the next record in the stream.
func (t *Tracker) Update(depth int, category string) error {
	cur := len(t.stack)
	if depth > cur {
		if t.strict && depth > cur+1 {
			return fmt.Errorf("%w: depth %d after %d", ErrDepthJump, depth, cur)
		}
		t.stack = append(t.stack, category)
		return nil
	}

	pop := cur - depth + 1
	if pop > cur {
		pop = cur
	}
	t.stack = append(t.stack[:cur-pop], category)
	return nil
}

// Stack returns the current categories, outermost first. The slice is
// owned by the tracker and only valid until the next Update.
func (t *Tracker) Stack() []string { return t.stack }

// Len returns the stack height.
func (t *Tracker) Len() int { return len(t.stack) }

// Top returns the category of the most recent record.
func (t *Tracker) Top() string {
	if len(t.stack) == 0 {
		return ""
	}
	return t.stack[len(t.stack)-1]
}

// Reset empties the stack for a new pass.
func (t *Tracker) Reset() { t.stack = t.stack[:0] }
