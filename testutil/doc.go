// Package testutil provides testing utilities for flatsplit.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG, a builder for pre-order sorted store content
// and helpers to write and read compressed store files.
//
// # Fixtures
//
//	tree := testutil.NewTree().
//	    Add("/", "rep:root").
//	    Add("/content", "sling:Folder").
//	    Add("/content/dam", "sling:Folder")
//	path := testutil.WriteStore(t, dir, "store-sorted.json.gz", tree.Bytes(), codec.CompressionGzip)
//
// # Random Trees
//
//	rng := testutil.NewRNG(seed)
//	tree := testutil.RandomTree(rng, 500, 6, []string{"nt:unstructured", "dam:Asset"})
package testutil
