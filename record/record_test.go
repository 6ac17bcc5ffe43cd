package record

import (
	"testing"

	"github.com/hupe1980/flatsplit/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	rec, err := Parse(`/content/dam|{"jcr:primaryType":"nam:sling:Folder"}`)
	require.NoError(t, err)
	assert.Equal(t, "/content/dam", rec.Path)
	assert.Equal(t, `{"jcr:primaryType":"nam:sling:Folder"}`, rec.Attributes)
	assert.Equal(t, 2, rec.Depth())

	for _, bad := range []string{"", "no-delimiter", "|{}", "relative|{}"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestDepth(t *testing.T) {
	cases := map[string]int{
		"/":           0,
		"/a":          1,
		"/a/b":        2,
		"/a/b/c":      3,
		"/a//b/":      2,
		"/jcr:system": 1,
	}
	for path, want := range cases {
		assert.Equal(t, want, Depth(path), path)
	}
}

func TestTrimTerminator(t *testing.T) {
	assert.Equal(t, "/a|{}", TrimTerminator("/a|{}\n"))
	assert.Equal(t, "/a|{}", TrimTerminator("/a|{}\r\n"))
	assert.Equal(t, "/a|{}", TrimTerminator("/a|{}"))
}

func TestJSONCategoryReader(t *testing.T) {
	r := NewJSONCategoryReader()

	t.Run("NameValue", func(t *testing.T) {
		got, err := r.Category(`/a|{"jcr:primaryType":"nam:dam:Asset","title":"x"}`)
		require.NoError(t, err)
		assert.Equal(t, "dam:Asset", got)
	})

	t.Run("MissingField", func(t *testing.T) {
		got, err := r.Category(`/a|{"title":"x"}`)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("OtherType", func(t *testing.T) {
		got, err := r.Category(`/a|{"jcr:primaryType":"str:dam:Asset"}`)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("NonString", func(t *testing.T) {
		got, err := r.Category(`/a|{"jcr:primaryType":["nam:a","nam:b"]}`)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("BrokenPayload", func(t *testing.T) {
		_, err := r.Category(`/a|{"jcr:primaryType":`)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("CustomFieldNoPrefix", func(t *testing.T) {
		custom := NewJSONCategoryReader(WithField("type"), WithTypePrefix(""), WithCodec(codec.JSON{}))
		got, err := custom.Category(`/a|{"type":"folder"}`)
		require.NoError(t, err)
		assert.Equal(t, "folder", got)
	})
}

func TestCategoryReaderFunc(t *testing.T) {
	var r CategoryReader = CategoryReaderFunc(func(line string) (string, error) {
		return "fixed", nil
	})
	got, err := r.Category("/x|{}")
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)
}
