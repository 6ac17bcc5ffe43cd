package ancestry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	tr := New(true)

	steps := []struct {
		depth    int
		category string
		want     []string
	}{
		{0, "rep:root", []string{"rep:root"}},
		{1, "nt:folder", []string{"nt:folder"}},
		{2, "dam:Asset", []string{"nt:folder", "dam:Asset"}},
		{3, "nt:resource", []string{"nt:folder", "dam:Asset", "nt:resource"}},
		{3, "nt:unstructured", []string{"nt:folder", "dam:Asset", "nt:unstructured"}},
		{2, "dam:Asset", []string{"nt:folder", "dam:Asset"}},
		{1, "cq:Page", []string{"cq:Page"}},
		{2, "", []string{"cq:Page", ""}},
	}

	for _, s := range steps {
		require.NoError(t, tr.Update(s.depth, s.category))
		assert.Equal(t, s.want, tr.Stack())
		assert.Equal(t, s.category, tr.Top())
	}

	tr.Reset()
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, "", tr.Top())
}

func TestTrackerLengthMatchesDepth(t *testing.T) {
	tr := New(true)
	for _, d := range []int{1, 2, 3, 4, 2, 3, 1, 2, 3, 3, 3, 1} {
		require.NoError(t, tr.Update(d, "c"))
		assert.Equal(t, d, tr.Len())
	}
}

func TestTrackerDepthJump(t *testing.T) {
	strict := New(true)
	require.NoError(t, strict.Update(1, "a"))
	err := strict.Update(3, "c")
	require.ErrorIs(t, err, ErrDepthJump)
	assert.Equal(t, []string{"a"}, strict.Stack())

	lenient := New(false)
	require.NoError(t, lenient.Update(1, "a"))
	require.NoError(t, lenient.Update(3, "c"))
	assert.Equal(t, []string{"a", "c"}, lenient.Stack())
}
