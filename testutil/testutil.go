package testutil

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/flatsplit/codec"
)

// RNG is a seeded generator for reproducible store fixtures. It is safe
// for concurrent use.
type RNG struct {
	mu   sync.Mutex
	r    *rand.Rand
	seed int64
}

// NewRNG seeds a PCG source with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0x666c6174)), seed: seed}
}

// Seed returns the seed the generator was created with.
func (g *RNG) Seed() int64 { return g.seed }

// Intn returns a value in [0,n).
func (g *RNG) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.IntN(n)
}

// Zipf returns a value in [0,n) with P(k) proportional to 1/(k+1)^s.
// s must be greater than 1.
func (g *RNG) Zipf(n int, s float64) int {
	if n <= 1 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return int(rand.NewZipf(g.r, s, 1, uint64(n-1)).Uint64())
}

// Node is one record of a generated tree.
type Node struct {
	Path     string
	Category string
}

// Depth returns the number of path segments.
func (n Node) Depth() int {
	return len(strings.FieldsFunc(n.Path, func(r rune) bool { return r == '/' }))
}

// Line renders the node as a store line without terminator. An empty
// category renders a node without a primary type.
func (n Node) Line() string {
	return Line(n.Path, n.Category)
}

// Line renders a store line: `<path>|{"jcr:primaryType":"nam:<category>"}`.
func Line(path, category string) string {
	if category == "" {
		return path + `|{}`
	}
	return fmt.Sprintf(`%s|{"jcr:primaryType":"nam:%s"}`, path, category)
}

// Tree collects nodes in the order they are added. Callers add them in
// pre-order.
type Tree struct {
	nodes []Node
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Add appends a node.
func (t *Tree) Add(path, category string) *Tree {
	t.nodes = append(t.nodes, Node{Path: path, Category: category})
	return t
}

// Nodes returns the nodes in order.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Bytes renders the tree as store content, one "\n"-terminated line per node.
func (t *Tree) Bytes() []byte {
	var buf bytes.Buffer
	for _, n := range t.nodes {
		buf.WriteString(n.Line())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// RandomTree generates a pre-order tree of n nodes below a root record,
// at most maxDepth levels deep. Categories are drawn Zipf-distributed from
// categories, so the first entries dominate.
func RandomTree(rng *RNG, n, maxDepth int, categories []string) *Tree {
	t := NewTree()
	t.Add("/", "rep:root")

	pick := func() string {
		if len(categories) == 0 {
			return ""
		}
		return categories[rng.Zipf(len(categories), 1.2)]
	}

	var gen func(parent string, depth int)
	gen = func(parent string, depth int) {
		for i := 0; t.Len() <= n; i++ {
			if depth > 1 && i > 0 && rng.Intn(3) == 0 {
				return
			}
			path := childPath(parent, fmt.Sprintf("n%04d", i))
			t.Add(path, pick())
			if depth < maxDepth && rng.Intn(2) == 0 {
				gen(path, depth+1)
			}
		}
	}
	gen("/", 1)

	return t
}

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// WriteStore writes data to dir/name, compressed with c, and returns the path.
func WriteStore(tb testing.TB, dir, name string, data []byte, c codec.Compression) string {
	tb.Helper()

	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		tb.Fatalf("compressor: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		tb.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("compress: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		tb.Fatalf("write store: %v", err)
	}
	return path
}

// ReadStore reads and decompresses the file at path.
func ReadStore(tb testing.TB, path string, c codec.Compression) []byte {
	tb.Helper()

	f, err := os.Open(path)
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}
	defer f.Close()

	r, err := c.NewReader(f)
	if err != nil {
		tb.Fatalf("decompressor: %v", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		tb.Fatalf("read store: %v", err)
	}
	return buf.Bytes()
}
