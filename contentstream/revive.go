package contentstream

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/pages"
)

// ContentIDPrefix starts the id of every content object made by Revive.
const ContentIDPrefix = "content-of-"

// revived is the parsed content of one page waiting to be stored.
type revived struct {
	pageID  string
	id      string
	content core.Content
}

// Revive replaces the content streams of every page with a parsed content
// tree. The tree is stored as a new object named after the page's
// Contents reference ("content-of-obj4") and the page's Contents entry is
// pointed at it. Pages are decoded and parsed concurrently; the document
// is only changed once every page has succeeded, in page order.
func Revive(ctx context.Context, doc *core.Document) error {
	pageIDs, err := pages.ListPageIDs(doc)
	if err != nil {
		return err
	}

	results := make([]*revived, len(pageIDs))
	g, ctx := errgroup.WithContext(ctx)
	for i, pageID := range pageIDs {
		i, pageID := i, pageID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := revivePage(doc, pageID)
			if err != nil {
				return fmt.Errorf("page %s: %w", pageID, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		page, err := doc.ResolveDict(core.Ref(r.pageID))
		if err != nil {
			return err
		}
		doc.SetObject(r.id, r.content)
		page["Contents"] = core.Ref(r.id)
	}
	return nil
}

// revivePage only reads the document, so pages can run in parallel.
func revivePage(doc *core.Document, pageID string) (*revived, error) {
	page, err := doc.ResolveDict(core.Ref(pageID))
	if err != nil {
		return nil, err
	}
	contents, ok := page["Contents"]
	if !ok {
		return nil, nil
	}

	id := ContentIDPrefix + pageID
	if ref, isRef := contents.(core.Ref); isRef {
		id = ContentIDPrefix + string(ref)
	}

	resolved, err := doc.Resolve(contents)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch v := resolved.(type) {
	case core.Content:
		// already revived
		return nil, nil
	case core.Null:
		// a dangling Contents reference reads as null
		return nil, nil
	case *core.Stream:
		if data, err = core.DecodeStream(v, doc.Resolve); err != nil {
			return nil, err
		}
	case core.Array:
		parts := make([][]byte, 0, len(v))
		for i, item := range v {
			obj, err := doc.Resolve(item)
			if err != nil {
				return nil, err
			}
			if _, isNull := obj.(core.Null); isNull {
				continue
			}
			s, ok := obj.(*core.Stream)
			if !ok {
				return nil, core.Malformed("Contents[%d] is %T, not a stream", i, obj)
			}
			part, err := core.DecodeStream(s, doc.Resolve)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		// Stream boundaries separate tokens
		data = bytes.Join(parts, []byte("\n"))
	default:
		return nil, core.Malformed("Contents is %T", resolved)
	}

	content, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &revived{pageID: pageID, id: id, content: content}, nil
}
