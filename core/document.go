package core

// TrailerID is the owner name used for values that live in the trailer.
const TrailerID = "trailer"

// maxRefChain bounds Resolve on chains of references to references.
const maxRefChain = 32

// Document is a parsed or assembled PDF: a header version, a trailer and
// an id-keyed table of top-level objects. Enumeration order is insertion
// order, which is also the order objects are written.
type Document struct {
	Version string
	Trailer Dict

	objects map[string]Object
	order   []string
}

// NewDocument creates an empty document
func NewDocument(version string) *Document {
	return &Document{
		Version: version,
		Trailer: make(Dict),
		objects: make(map[string]Object),
	}
}

// Object returns the object stored under id
func (d *Document) Object(id string) (Object, bool) {
	obj, ok := d.objects[id]
	return obj, ok
}

// Has reports whether id is present
func (d *Document) Has(id string) bool {
	_, ok := d.objects[id]
	return ok
}

// SetObject stores obj under id. A new id is appended to the enumeration
// order; an existing id keeps its position.
func (d *Document) SetObject(id string, obj Object) {
	if d.objects == nil {
		d.objects = make(map[string]Object)
	}
	if _, ok := d.objects[id]; !ok {
		d.order = append(d.order, id)
	}
	d.objects[id] = obj
}

// DeleteObject removes id and reports whether it was present
func (d *Document) DeleteObject(id string) bool {
	if _, ok := d.objects[id]; !ok {
		return false
	}
	delete(d.objects, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// DeleteObjects removes every listed id in one pass over the order.
func (d *Document) DeleteObjects(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := d.objects[id]; ok {
			drop[id] = true
			delete(d.objects, id)
		}
	}
	kept := d.order[:0]
	for _, id := range d.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	d.order = kept
}

// MoveObject re-keys an object, keeping its place in the enumeration order.
// Nothing that refers to oldID is changed.
func (d *Document) MoveObject(oldID, newID string) error {
	obj, ok := d.objects[oldID]
	if !ok {
		return &DanglingReferenceError{ID: oldID}
	}
	if oldID == newID {
		return nil
	}
	if _, exists := d.objects[newID]; exists {
		return &IDCollisionError{ID: newID}
	}
	delete(d.objects, oldID)
	d.objects[newID] = obj
	for i, existing := range d.order {
		if existing == oldID {
			d.order[i] = newID
			break
		}
	}
	return nil
}

// IDs returns the object ids in enumeration order
func (d *Document) IDs() []string {
	return append([]string(nil), d.order...)
}

// Len returns the number of objects
func (d *Document) Len() int {
	return len(d.order)
}

// Resolve follows obj while it is a reference and returns the first
// non-reference value.
func (d *Document) Resolve(obj Object) (Object, error) {
	for i := 0; i < maxRefChain; i++ {
		ref, ok := obj.(Ref)
		if !ok {
			return obj, nil
		}
		target, found := d.objects[string(ref)]
		if !found {
			return nil, &DanglingReferenceError{ID: string(ref)}
		}
		obj = target
	}
	return nil, Malformed("reference chain longer than %d", maxRefChain)
}

// ResolveDict resolves obj and requires a dictionary. For a stream the
// stream dictionary is returned.
func (d *Document) ResolveDict(obj Object) (Dict, error) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case Dict:
		return v, nil
	case *Stream:
		return v.Dict, nil
	}
	return nil, Malformed("expected dictionary, got %T", resolved)
}

// Catalog returns the document catalog named by the trailer Root entry.
func (d *Document) Catalog() (Dict, error) {
	root, ok := d.Trailer["Root"]
	if !ok {
		return nil, Malformed("trailer has no Root")
	}
	return d.ResolveDict(root)
}

// Info returns the document information dictionary, or nil when absent.
func (d *Document) Info() (Dict, error) {
	info, ok := d.Trailer["Info"]
	if !ok {
		return nil, nil
	}
	return d.ResolveDict(info)
}
