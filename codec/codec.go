// Package codec holds the byte formats flatsplit reads and writes.
//
// [Codec] decodes record attribute payloads and encodes split manifests.
// [Compression] wraps the store files and the partitions cut from them.
package codec

import "fmt"

// Codec serializes values. Implementations are safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default decodes record attributes and encodes manifests unless the caller
// picks another codec.
var Default Codec = GoJSON{}

var builtin = []Codec{JSON{}, GoJSON{}}

// ByName looks up a built-in codec.
func ByName(name string) (Codec, bool) {
	for _, c := range builtin {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// MustMarshal panics on encode failure. Nil c means Default.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("codec: %s: %v", c.Name(), err))
	}
	return b
}
