// Package graph edits a [core.Document] as a graph of objects joined by
// references.
//
// [BuildIndex] records every place a reference occurs. [Rename] uses that
// index to move an object to a new id and rewrite the references in one
// step, so the document never holds a dangling reference.
//
// [CollectGarbage] removes objects that the trailer cannot reach.
// [KeepOnlyPages] replaces the page tree with a flat selection and is
// normally followed by CollectGarbage. [NormalizeIDs] gives the catalog,
// page tree, info dictionary and pages stable, readable ids.
package graph
