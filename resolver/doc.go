// Package resolver follows symbolic references between the objects of a
// [core.Document].
//
// # Basic Usage
//
//	r := resolver.NewResolver(doc)
//	obj, err := r.Resolve(core.Ref("obj5"))
//
// # Deep Resolution
//
// ResolveDeep returns a copy of an object with every nested reference
// replaced by its target:
//
//	info, err := r.ResolveDeep(doc.Trailer["Info"])
//
// # Cycle Detection
//
// A reference that leads back to one of its ancestors is reported as
// malformed rather than expanded forever. The recursion depth is bounded
// too:
//
//	r := resolver.NewResolver(doc, resolver.WithMaxDepth(50))
package resolver
