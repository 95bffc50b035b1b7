package pages

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/resolver"
)

// maxInheritDepth bounds the Parent walk for inherited attributes
const maxInheritDepth = 64

// ObjectResolver interface for resolving references
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{
		dict:     dict,
		resolver: resolver,
	}
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	name, _ := c.dict.GetName("Type")
	return string(name)
}

// PagesRef returns the reference to the page tree root
func (c *Catalog) PagesRef() (core.Ref, error) {
	pagesObj := c.dict.Get("Pages")
	if pagesObj == nil {
		return "", core.Malformed("catalog missing /Pages entry")
	}
	ref, ok := pagesObj.(core.Ref)
	if !ok {
		return "", core.Malformed("catalog /Pages must be a reference, got %T", pagesObj)
	}
	return ref, nil
}

// Metadata returns the metadata stream if present
func (c *Catalog) Metadata() (*core.Stream, error) {
	metadataRef := c.dict.Get("Metadata")
	if metadataRef == nil {
		return nil, nil // Optional
	}

	metadataObj, err := c.resolver.Resolve(metadataRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Metadata: %w", err)
	}

	stream, ok := metadataObj.(*core.Stream)
	if !ok {
		return nil, core.Malformed("invalid /Metadata type: %T", metadataObj)
	}

	return stream, nil
}

// Version returns the version entry if present
func (c *Catalog) Version() string {
	name, _ := c.dict.GetName("Version")
	return string(name)
}

// ListPageIDs returns the ids of the document's Page objects in page
// order, found by a depth-first walk of the page tree from the catalog's
// Pages entry. Nodes that are neither Pages nor Page are skipped.
func ListPageIDs(doc *core.Document) ([]string, error) {
	catalog, err := doc.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	root, err := NewCatalog(catalog, doc).PagesRef()
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	stack := []core.Object{root}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ref, ok := top.(core.Ref)
		if !ok {
			return nil, core.Malformed("page tree node must be a reference, got %T", top)
		}
		id := string(ref)
		if seen[id] {
			return nil, core.Malformed("page tree visits %s twice", id)
		}
		seen[id] = true

		node, err := doc.ResolveDict(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve page tree node %s: %w", id, err)
		}

		typeName, _ := node.GetName("Type")
		switch typeName {
		case "Pages":
			kidsObj, err := doc.Resolve(node.Get("Kids"))
			if err != nil {
				return nil, fmt.Errorf("failed to resolve /Kids of %s: %w", id, err)
			}
			kids, ok := kidsObj.(core.Array)
			if !ok {
				return nil, core.Malformed("invalid /Kids type in %s: %T", id, kidsObj)
			}
			// Reverse push so the first kid is visited first
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		case "Page":
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Pages returns a view of every page in page order
func Pages(doc *core.Document) ([]*Page, error) {
	ids, err := ListPageIDs(doc)
	if err != nil {
		return nil, err
	}
	r := resolver.NewResolver(doc)
	pages := make([]*Page, 0, len(ids))
	for _, id := range ids {
		page, err := NewPage(doc, id, r)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Page represents a single PDF page
type Page struct {
	id       string
	dict     core.Dict
	resolver ObjectResolver
}

// NewPage creates a page view over the object stored under id
func NewPage(doc *core.Document, id string, resolver ObjectResolver) (*Page, error) {
	dict, err := doc.ResolveDict(core.Ref(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", id, err)
	}
	return &Page{id: id, dict: dict, resolver: resolver}, nil
}

// ID returns the page's object id
func (p *Page) ID() string {
	return p.id
}

// Dict returns the page dictionary
func (p *Page) Dict() core.Dict {
	return p.dict
}

// InheritableKeys are the page attributes a page may take from an
// ancestor in the page tree.
var InheritableKeys = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// inherited looks name up on the page, then on each ancestor through
// Parent, and resolves it. It returns nil when no node carries the
// attribute.
func (p *Page) inherited(name string) (core.Object, error) {
	value, err := p.Lookup(name)
	if err != nil || value == nil {
		return nil, err
	}
	return p.resolver.Resolve(value)
}

// Lookup returns the entry name as written on the page or on its nearest
// ancestor carrying it, without resolving it. It returns nil when no node
// carries the attribute.
func (p *Page) Lookup(name string) (core.Object, error) {
	node := p.dict
	for depth := 0; node != nil; depth++ {
		if depth > maxInheritDepth {
			return nil, core.Malformed("page %s: Parent chain too deep", p.id)
		}
		if value := node.Get(name); value != nil {
			return value, nil
		}
		parentObj := node.Get("Parent")
		if parentObj == nil {
			return nil, nil
		}
		parent, err := p.resolver.Resolve(parentObj)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Parent of page %s: %w", p.id, err)
		}
		node, _ = parent.(core.Dict)
	}
	return nil, nil
}

// MediaBox returns the page media box [x1 y1 x2 y2]
// This is inheritable
func (p *Page) MediaBox() ([]float64, error) {
	return p.getBox("MediaBox")
}

// CropBox returns the page crop box [x1 y1 x2 y2]
// This is inheritable, defaults to MediaBox if not present
func (p *Page) CropBox() ([]float64, error) {
	box, err := p.getBox("CropBox")
	if err != nil {
		return p.MediaBox()
	}
	return box, nil
}

// getBox retrieves a box attribute (inheritable)
func (p *Page) getBox(name string) ([]float64, error) {
	boxObj, err := p.inherited(name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	if boxObj == nil {
		return nil, fmt.Errorf("%s not found", name)
	}

	boxArr, ok := boxObj.(core.Array)
	if !ok {
		return nil, core.Malformed("invalid %s type: %T", name, boxObj)
	}
	if len(boxArr) != 4 {
		return nil, core.Malformed("invalid %s length: %d (expected 4)", name, len(boxArr))
	}

	box := make([]float64, 4)
	for i, elem := range boxArr {
		resolved, err := p.resolver.Resolve(elem)
		if err != nil {
			return nil, err
		}
		n, ok := resolved.(core.Number)
		if !ok {
			return nil, core.Malformed("invalid %s element type: %T", name, resolved)
		}
		box[i] = float64(n)
	}

	return box, nil
}

// Resources returns the page resources dictionary
// This is inheritable
func (p *Page) Resources() (core.Dict, error) {
	resourcesObj, err := p.inherited("Resources")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}
	if resourcesObj == nil {
		return nil, fmt.Errorf("resources not found")
	}

	resourcesDict, ok := resourcesObj.(core.Dict)
	if !ok {
		return nil, core.Malformed("invalid Resources type: %T", resourcesObj)
	}

	return resourcesDict, nil
}

// Contents returns the page content: streams before revival, a single
// content tree after.
func (p *Page) Contents() ([]core.Object, error) {
	contentsObj := p.dict.Get("Contents")
	if contentsObj == nil {
		return nil, nil // Contents is optional
	}

	contentsResolved, err := p.resolver.Resolve(contentsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Contents: %w", err)
	}

	switch v := contentsResolved.(type) {
	case *core.Stream, core.Content:
		return []core.Object{v}, nil
	case core.Array:
		streams := make([]core.Object, len(v))
		for i, elem := range v {
			resolved, err := p.resolver.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
			}
			streams[i] = resolved
		}
		return streams, nil
	default:
		return nil, core.Malformed("invalid Contents type: %T", contentsResolved)
	}
}

// Rotate returns the page rotation (0, 90, 180, or 270)
// This is inheritable
func (p *Page) Rotate() int {
	rotateObj, err := p.inherited("Rotate")
	if err != nil || rotateObj == nil {
		return 0
	}
	if rotate, ok := rotateObj.(core.Number); ok {
		return ((rotate.Int() % 360) + 360) % 360
	}
	return 0
}

// Width returns the page width (from MediaBox)
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the page height (from MediaBox)
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}
