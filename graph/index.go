package graph

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// Site is one place a reference occurs: the top-level object that holds
// it (core.TrailerID for the trailer) and the path inside that object.
type Site struct {
	Owner string
	Path  core.Path
}

// Index maps every object id to the sites that refer to it. Every id in
// the document has an entry, even when nothing refers to it.
type Index struct {
	sites map[string][]Site
}

// BuildIndex visits the trailer and then every object in document order,
// recording each reference. A reference to an id the document does not
// hold is a *core.DanglingReferenceError.
func BuildIndex(doc *core.Document) (*Index, error) {
	idx := &Index{sites: make(map[string][]Site, doc.Len())}
	for _, id := range doc.IDs() {
		idx.sites[id] = nil
	}

	if err := idx.collect(doc, core.TrailerID, doc.Trailer); err != nil {
		return nil, err
	}
	for _, id := range doc.IDs() {
		obj, _ := doc.Object(id)
		if err := idx.collect(doc, id, obj); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *Index) collect(doc *core.Document, owner string, obj core.Object) error {
	v := &siteVisitor{idx: idx, doc: doc, owner: owner}
	if err := core.Walk(obj, v); err != nil {
		return fmt.Errorf("indexing %s: %w", owner, err)
	}
	return nil
}

type siteVisitor struct {
	core.BaseVisitor
	idx   *Index
	doc   *core.Document
	owner string
}

func (v *siteVisitor) VisitRef(r core.Ref, path core.Path) error {
	id := string(r)
	if !v.doc.Has(id) {
		return &core.DanglingReferenceError{ID: id, From: v.owner}
	}
	v.idx.sites[id] = append(v.idx.sites[id], Site{Owner: v.owner, Path: path.Clone()})
	return nil
}

// Sites returns the places that refer to id
func (idx *Index) Sites(id string) []Site {
	return idx.sites[id]
}

// Has reports whether id is indexed
func (idx *Index) Has(id string) bool {
	_, ok := idx.sites[id]
	return ok
}

// RefCount returns how many sites refer to id
func (idx *Index) RefCount(id string) int {
	return len(idx.sites[id])
}

// Len returns the number of indexed ids
func (idx *Index) Len() int {
	return len(idx.sites)
}
