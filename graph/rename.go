package graph

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// Rename moves the object stored under oldID to newID and rewrites every
// reference to it, keeping idx in step with the document. Renaming an id
// to itself does nothing. The object keeps its place in the enumeration
// order.
func Rename(doc *core.Document, idx *Index, oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	if newID == core.TrailerID || doc.Has(newID) || idx.Has(newID) {
		return &core.IDCollisionError{ID: newID}
	}
	sites, ok := idx.sites[oldID]
	if !ok {
		return &core.DanglingReferenceError{ID: oldID}
	}
	if err := doc.MoveObject(oldID, newID); err != nil {
		return err
	}

	for _, site := range sites {
		owner := site.Owner
		if owner == oldID {
			owner = newID
		}
		if err := replaceAt(doc, owner, site.Path, core.Ref(newID)); err != nil {
			return fmt.Errorf("renaming %s to %s: %w", oldID, newID, err)
		}
	}

	delete(idx.sites, oldID)
	idx.sites[newID] = sites

	// Sites recorded inside the moved object now belong to newID
	for id, list := range idx.sites {
		for i := range list {
			if list[i].Owner == oldID {
				list[i].Owner = newID
			}
		}
		idx.sites[id] = list
	}
	return nil
}

func replaceAt(doc *core.Document, owner string, path core.Path, value core.Object) error {
	if owner == core.TrailerID {
		root, err := core.Replace(doc.Trailer, path, value)
		if err != nil {
			return err
		}
		doc.Trailer = root.(core.Dict)
		return nil
	}
	obj, ok := doc.Object(owner)
	if !ok {
		return &core.DanglingReferenceError{ID: owner}
	}
	root, err := core.Replace(obj, path, value)
	if err != nil {
		return err
	}
	// Only a reference stored as the whole object changes identity
	if len(path) == 0 {
		doc.SetObject(owner, root)
	}
	return nil
}
