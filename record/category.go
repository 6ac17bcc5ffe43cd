package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/flatsplit/codec"
)

const (
	// DefaultCategoryField is the attribute naming a node's primary type.
	DefaultCategoryField = "jcr:primaryType"
	// DefaultTypePrefix marks a NAME-typed value in the attribute payload.
	DefaultTypePrefix = "nam:"
)

// CategoryReader extracts the category of the node a line describes.
// An empty category means the node has none; it never protects a subtree.
type CategoryReader interface {
	Category(line string) (string, error)
}

// CategoryReaderFunc adapts a function to CategoryReader.
type CategoryReaderFunc func(line string) (string, error)

// Category implements CategoryReader.
func (f CategoryReaderFunc) Category(line string) (string, error) { return f(line) }

// JSONCategoryReader reads the category from one field of a JSON payload.
// Only values carrying the type prefix count; other values, non-string
// values and a missing field all yield "".
type JSONCategoryReader struct {
	codec  codec.Codec
	field  string
	prefix string
}

// ReaderOption configures a JSONCategoryReader.
type ReaderOption func(*JSONCategoryReader)

// WithCodec sets the codec used to decode payloads.
func WithCodec(c codec.Codec) ReaderOption {
	return func(r *JSONCategoryReader) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithField sets the attribute holding the category.
func WithField(field string) ReaderOption {
	return func(r *JSONCategoryReader) { r.field = field }
}

// WithTypePrefix sets the required value prefix. An empty prefix accepts
// every string value as-is.
func WithTypePrefix(prefix string) ReaderOption {
	return func(r *JSONCategoryReader) { r.prefix = prefix }
}

// NewJSONCategoryReader creates a reader for `jcr:primaryType` NAME values.
func NewJSONCategoryReader(opts ...ReaderOption) *JSONCategoryReader {
	r := &JSONCategoryReader{
		codec:  codec.Default,
		field:  DefaultCategoryField,
		prefix: DefaultTypePrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Category implements CategoryReader.
func (r *JSONCategoryReader) Category(line string) (string, error) {
	rec, err := Parse(line)
	if err != nil {
		return "", err
	}

	var attrs map[string]json.RawMessage
	if err := r.codec.Unmarshal([]byte(rec.Attributes), &attrs); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformed, rec.Path, err)
	}

	raw, ok := attrs[r.field]
	if !ok {
		return "", nil
	}
	var value string
	if err := r.codec.Unmarshal(raw, &value); err != nil {
		return "", nil
	}
	if r.prefix == "" {
		return value, nil
	}
	if !strings.HasPrefix(value, r.prefix) {
		return "", nil
	}
	return value[len(r.prefix):], nil
}
