// Package fs is the file system seam of the splitter.
//
// Every file the splitter, estimator, local blob store and publisher touch
// goes through a [FileSystem]. Production code uses [Default]; tests swap in
// a [FaultyFS] whose rules fail opens, reads, writes or closes of files
// whose name contains a pattern:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("split-2-", fs.Fault{FailAfterBytes: 0, FailAfterBytesRead: -1})
//
// Calls take no context. A split pass is one sequential read and a failing
// syscall ends it with an error.
package fs
