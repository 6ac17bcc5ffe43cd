// Package planner decides where a sorted stream may be cut into partitions.
package planner

// ProtectedSet reports whether a category roots a subtree that must stay
// in one partition.
type ProtectedSet interface {
	Contains(category string) bool
}

// Planner holds the per-run cut parameters. They do not change during a pass.
type Planner struct {
	// Threshold is the number of bytes a partition must exceed before a cut is due.
	Threshold int64
	// MaxPartitions bounds the partition count.
	MaxPartitions int
	// Protected may be nil, in which case every offset is legal.
	Protected ProtectedSet
}

// Due reports whether the active partition (1-based index) has outgrown
// the threshold and another partition may still be opened.
func (p Planner) Due(bytesSinceCut int64, index int) bool {
	return bytesSinceCut > p.Threshold && index < p.MaxPartitions
}

// Legal reports whether the stream may be cut right before the record whose
// ancestry is stack. The record's own category (the top) is ignored: a
// protected subtree may start a partition, it just cannot be entered by one.
func (p Planner) Legal(stack []string) bool {
	if p.Protected == nil || len(stack) < 2 {
		return true
	}
	for _, c := range stack[:len(stack)-1] {
		if p.Protected.Contains(c) {
			return false
		}
	}
	return true
}

// Decide reports whether to cut before the current record.
func (p Planner) Decide(bytesSinceCut int64, index int, stack []string) bool {
	return p.Due(bytesSinceCut, index) && p.Legal(stack)
}
