// Package pages walks the page tree of a [core.Document].
//
// # Page Order
//
// [ListPageIDs] returns the ids of the Page objects in reading order. The
// tree is walked depth first from the catalog's Pages entry with an
// explicit stack, so deep trees cannot exhaust the Go stack, and a node
// reached twice is reported as malformed.
//
//	ids, err := pages.ListPageIDs(doc)
//
// # Page Access
//
// The [Page] type is a read-only view of one page with its inheritable
// attributes resolved through the Parent chain:
//
//   - MediaBox and CropBox
//   - Rotate
//   - Resources
//   - Contents, as streams or as a parsed content tree
//
// This view and the page's content tree are what a renderer needs.
package pages
