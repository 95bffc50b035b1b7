package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/pages"
)

// KeepOnlyPages builds a new flat page tree holding the given 1-based
// page numbers in the given order and points the catalog at it. Each
// selected page first receives the attributes it inherited from the old
// tree (Resources, MediaBox, CropBox, Rotate), then its Parent is
// repointed to the new node. Nothing is deleted; pages left out become
// unreachable and CollectGarbage removes them. The id of the new node is
// returned.
func KeepOnlyPages(doc *core.Document, pageNumbers []int) (string, error) {
	ids, err := pages.ListPageIDs(doc)
	if err != nil {
		return "", err
	}

	selected := make(core.Array, 0, len(pageNumbers))
	parts := make([]string, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		if n < 1 || n > len(ids) {
			return "", fmt.Errorf("page %d out of range [1, %d]", n, len(ids))
		}
		selected = append(selected, core.Ref(ids[n-1]))
		parts = append(parts, strconv.Itoa(n))
	}

	id := "pages" + strings.Join(parts, "-")
	if doc.Has(id) {
		return "", &core.IDCollisionError{ID: id}
	}

	catalog, err := doc.Catalog()
	if err != nil {
		return "", err
	}

	// Attributes inherited from the old tree move onto the pages before
	// they are detached from it.
	for _, kid := range selected {
		if err := carryInherited(doc, string(kid.(core.Ref))); err != nil {
			return "", err
		}
	}

	doc.SetObject(id, core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  selected,
		"Count": core.Number(len(selected)),
	})
	for _, kid := range selected {
		page, err := doc.ResolveDict(kid)
		if err != nil {
			return "", err
		}
		page["Parent"] = core.Ref(id)
	}
	catalog["Pages"] = core.Ref(id)
	return id, nil
}

// carryInherited copies every inheritable attribute the page takes from an
// ancestor into the page dictionary itself. References are kept as they are.
func carryInherited(doc *core.Document, pageID string) error {
	page, err := pages.NewPage(doc, pageID, doc)
	if err != nil {
		return err
	}
	dict := page.Dict()
	for _, key := range pages.InheritableKeys {
		if dict.Has(key) {
			continue
		}
		value, err := page.Lookup(key)
		if err != nil {
			return err
		}
		if value != nil {
			dict[key] = core.Clone(value)
		}
	}
	return nil
}
