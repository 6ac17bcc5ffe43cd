package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type set map[string]bool

func (s set) Contains(c string) bool { return s[c] }

func TestDue(t *testing.T) {
	p := Planner{Threshold: 100, MaxPartitions: 3}

	assert.False(t, p.Due(100, 1))
	assert.True(t, p.Due(101, 1))
	assert.True(t, p.Due(101, 2))
	assert.False(t, p.Due(101, 3))
	assert.False(t, p.Due(1<<40, 4))
}

func TestLegal(t *testing.T) {
	p := Planner{Protected: set{"dam:Asset": true}}

	assert.True(t, p.Legal(nil))
	assert.True(t, p.Legal([]string{"dam:Asset"}))
	assert.True(t, p.Legal([]string{"nt:folder", "dam:Asset"}))
	assert.False(t, p.Legal([]string{"dam:Asset", "nt:resource"}))
	assert.False(t, p.Legal([]string{"nt:folder", "dam:Asset", "nt:unstructured", "nt:resource"}))
	assert.True(t, p.Legal([]string{"nt:folder", "nt:unstructured", "nt:resource"}))

	assert.True(t, Planner{}.Legal([]string{"dam:Asset", "nt:resource"}))
}

func TestDecide(t *testing.T) {
	p := Planner{Threshold: 10, MaxPartitions: 2, Protected: set{"P": true}}

	assert.True(t, p.Decide(11, 1, []string{"Q", "P"}))
	assert.False(t, p.Decide(11, 1, []string{"P", "Q"}))
	assert.False(t, p.Decide(5, 1, []string{"Q"}))
	assert.False(t, p.Decide(11, 2, []string{"Q"}))
}
