package graph

import (
	"fmt"
	"sort"

	"github.com/tsawler/pdfgraph/core"
)

// CollectGarbage deletes every object that cannot be reached from the
// trailer and returns the deleted ids in sorted order. References to
// missing ids are ignored here. When a reachable value is malformed the
// error is returned and nothing is deleted.
func CollectGarbage(doc *core.Document) ([]string, error) {
	reached, err := Reachable(doc)
	if err != nil {
		return nil, err
	}

	var garbage []string
	for _, id := range doc.IDs() {
		if !reached[id] {
			garbage = append(garbage, id)
		}
	}
	doc.DeleteObjects(garbage)
	sort.Strings(garbage)
	return garbage, nil
}

// Reachable returns the set of ids reachable from the trailer.
func Reachable(doc *core.Document) (map[string]bool, error) {
	reached := make(map[string]bool)
	m := &marker{doc: doc, reached: reached}
	m.queue = append(m.queue, queued{owner: core.TrailerID, obj: doc.Trailer})
	for len(m.queue) > 0 {
		item := m.queue[0]
		m.queue = m.queue[1:]
		if err := core.Walk(item.obj, m); err != nil {
			return nil, fmt.Errorf("marking %s: %w", item.owner, err)
		}
	}
	return reached, nil
}

type queued struct {
	owner string
	obj   core.Object
}

type marker struct {
	core.BaseVisitor
	doc     *core.Document
	reached map[string]bool
	queue   []queued
}

func (m *marker) VisitRef(r core.Ref, _ core.Path) error {
	id := string(r)
	if m.reached[id] {
		return nil
	}
	m.reached[id] = true
	if obj, ok := m.doc.Object(id); ok {
		m.queue = append(m.queue, queued{owner: id, obj: obj})
	}
	return nil
}
