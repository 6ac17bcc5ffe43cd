// Package flatsplit splits a sorted flat file store into partitions that
// can be indexed in parallel.
//
// A store file holds one node per line, `<path>|<json>`, sorted in
// pre-order. The splitter streams the file once and cuts it into at most
// N partitions of roughly equal uncompressed size. A cut never lands inside
// the subtree of a protected node type: documents built from aggregates or
// indexing rules need their whole subtree in one partition.
//
// # Quick Start
//
//	s, _ := flatsplit.New("/data/store-sorted.json.gz",
//	    flatsplit.WithPartitionCount(8),
//	    flatsplit.WithCompression(codec.CompressionGzip),
//	    flatsplit.WithBoundaryResolver(nodetype.NewResolver(registry, indexdef.Sources(defs)...)),
//	)
//	res, err := s.Split()
//	for _, p := range res.Partitions {
//	    fmt.Println(p.Index, p.Path)
//	}
//
// Concatenating the partitions in order reproduces the input byte for byte.
//
// # Skipping
//
// Small inputs are not split. When the per-partition threshold is below
// the minimum split size, when the partition count is one, or when the
// work directory cannot be created, Split returns the input file as the
// only partition and Result.Skipped is set. Nothing is written.
//
// # Sortedness
//
// The ancestor chain is inferred from depth changes. By default a record
// more than one level deeper than its predecessor fails the split with
// ErrUnsortedInput; WithLenientOrdering accepts such input.
package flatsplit
