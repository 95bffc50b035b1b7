package graph

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/pages"
)

// NormalizeIDs renames the well-known objects to stable ids: the pages
// become page1..pageN in page order, the catalog becomes "catalog", the
// information dictionary "info" and the page tree root "pages". Entries
// that are not references are left alone.
func NormalizeIDs(doc *core.Document) error {
	idx, err := BuildIndex(doc)
	if err != nil {
		return err
	}
	pageIDs, err := pages.ListPageIDs(doc)
	if err != nil {
		return err
	}

	for i, id := range pageIDs {
		if err := Rename(doc, idx, id, fmt.Sprintf("page%d", i+1)); err != nil {
			return err
		}
	}

	if root, ok := doc.Trailer["Root"].(core.Ref); ok {
		if err := Rename(doc, idx, string(root), "catalog"); err != nil {
			return err
		}
	}
	if info, ok := doc.Trailer["Info"].(core.Ref); ok {
		if err := Rename(doc, idx, string(info), "info"); err != nil {
			return err
		}
	}

	catalog, err := doc.Catalog()
	if err != nil {
		return err
	}
	if tree, ok := catalog["Pages"].(core.Ref); ok {
		if err := Rename(doc, idx, string(tree), "pages"); err != nil {
			return err
		}
	}
	return nil
}
