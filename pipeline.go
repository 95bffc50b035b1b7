package pdfgraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tsawler/pdfgraph/contentstream"
	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/graph"
	"github.com/tsawler/pdfgraph/pages"
	"github.com/tsawler/pdfgraph/projection"
	"github.com/tsawler/pdfgraph/reader"
	"github.com/tsawler/pdfgraph/resolver"
	"github.com/tsawler/pdfgraph/source"
	"github.com/tsawler/pdfgraph/writer"
)

// Pipeline provides a fluent interface for loading, editing and writing
// PDF documents. Each configuration method returns a new Pipeline,
// making it safe for concurrent use and allowing method chaining.
// Every terminal operation loads the document afresh.
type Pipeline struct {
	// Source (exactly one is set)
	location string
	data     []byte
	doc      *core.Document

	loader source.Loader
	logger *slog.Logger

	// Configuration
	options Options

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Pipeline with a deep copy of options.
func (p *Pipeline) clone() *Pipeline {
	return &Pipeline{
		location: p.location,
		data:     p.data,
		doc:      p.doc,
		loader:   p.loader,
		logger:   p.logger,
		options:  p.options.clone(),
		err:      p.err,
	}
}

// Password sets the password used to open an encrypted document. Either
// the user or the owner password works.
//
// Example:
//
//	doc, err := pdfgraph.FromBytes(data).Password("secret").Document(ctx)
func (p *Pipeline) Password(password string) *Pipeline {
	newP := p.clone()
	newP.options.password = password
	return newP
}

// Pages keeps only the given 1-based pages, in the given order. Repeated
// calls append. The dropped pages and everything only they used are
// removed from the output.
//
// Example:
//
//	data, err := pdfgraph.FromBytes(data).Pages(3, 1).Bytes(ctx)
func (p *Pipeline) Pages(pages ...int) *Pipeline {
	newP := p.clone()
	for _, n := range pages {
		if n < 1 && newP.err == nil {
			newP.err = fmt.Errorf("invalid page number %d: pages start at 1", n)
		}
	}
	newP.options.pages = append(newP.options.pages, pages...)
	return newP
}

// PageRange keeps pages start through end (1-indexed, inclusive).
//
// Example:
//
//	data, err := pdfgraph.FromBytes(data).PageRange(5, 10).Bytes(ctx)
func (p *Pipeline) PageRange(start, end int) *Pipeline {
	pages := make([]int, 0, max(end-start+1, 0))
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return p.Pages(pages...)
}

// NormalizeIDs renames the catalog, the info dictionary, the page tree
// root and the pages to "catalog", "info", "pages" and "page1".."pageN".
//
// Example:
//
//	js, err := pdfgraph.FromBytes(data).NormalizeIDs().JSON(ctx)
func (p *Pipeline) NormalizeIDs() *Pipeline {
	newP := p.clone()
	newP.options.normalizeIDs = true
	return newP
}

// CollectGarbage removes objects that cannot be reached from the trailer.
func (p *Pipeline) CollectGarbage() *Pipeline {
	newP := p.clone()
	newP.options.collectGarbage = true
	return newP
}

// ReviveContents replaces page content streams with parsed operator trees.
//
// Example:
//
//	doc, err := pdfgraph.FromBytes(data).ReviveContents().Document(ctx)
func (p *Pipeline) ReviveContents() *Pipeline {
	newP := p.clone()
	newP.options.reviveContents = true
	return newP
}

// CompressContent makes Bytes write operator trees with FlateDecode.
func (p *Pipeline) CompressContent() *Pipeline {
	newP := p.clone()
	newP.options.compressContent = true
	return newP
}

// AllowLocalAccess lets Open read local paths and file:// URLs.
func (p *Pipeline) AllowLocalAccess() *Pipeline {
	newP := p.clone()
	newP.options.allowLocal = true
	if auto, ok := newP.loader.(*source.Auto); ok && auto.File != nil {
		file := *auto.File
		file.AllowLocal = true
		newP.loader = &source.Auto{File: &file, HTTP: auto.HTTP}
	}
	return newP
}

// WithLoader replaces the default byte source used by Open.
func (p *Pipeline) WithLoader(l source.Loader) *Pipeline {
	newP := p.clone()
	newP.loader = l
	return newP
}

// WithLogger sets the logger handed to the loader and the reader.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	newP := p.clone()
	newP.logger = logger
	return newP
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Document runs the configured steps and returns the resulting graph.
// This is a terminal operation.
func (p *Pipeline) Document(ctx context.Context) (*core.Document, error) {
	return p.process(ctx)
}

// Bytes runs the configured steps and serializes the result as a PDF file.
// This is a terminal operation.
//
// Example:
//
//	data, err := pdfgraph.Open("https://example.com/a.pdf").Pages(1).Bytes(ctx)
func (p *Pipeline) Bytes(ctx context.Context) ([]byte, error) {
	doc, err := p.process(ctx)
	if err != nil {
		return nil, err
	}
	var opts []writer.Option
	if p.options.compressContent {
		opts = append(opts, writer.WithCompressContent())
	}
	return writer.Serialize(doc, opts...)
}

// JSON runs the configured steps and returns the JSON projection of the
// result. This is a terminal operation.
func (p *Pipeline) JSON(ctx context.Context) ([]byte, error) {
	doc, err := p.process(ctx)
	if err != nil {
		return nil, err
	}
	return projection.Marshal(doc)
}

// PageCount returns the number of pages after page selection.
// This is a terminal operation.
//
// Example:
//
//	n, err := pdfgraph.FromBytes(data).PageCount(ctx)
func (p *Pipeline) PageCount(ctx context.Context) (int, error) {
	doc, err := p.process(ctx)
	if err != nil {
		return 0, err
	}
	ids, err := pages.ListPageIDs(doc)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Info returns the entries of the document information dictionary as
// text. Text strings are decoded from Latin-1 or UTF-16; names and
// numbers are given in their PDF syntax. A document without an Info
// dictionary yields an empty map. This is a terminal operation.
func (p *Pipeline) Info(ctx context.Context) (map[string]string, error) {
	doc, err := p.process(ctx)
	if err != nil {
		return nil, err
	}
	info, err := doc.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read info dictionary: %w", err)
	}

	r := resolver.NewResolver(doc)
	out := make(map[string]string, len(info))
	for _, key := range info.Keys() {
		value, err := r.Resolve(info[key])
		if err != nil {
			p.log().Debug("skipping info entry", "key", key, "error", err)
			continue
		}
		switch v := value.(type) {
		case core.String:
			out[key] = core.DecodeTextString(v)
		case core.Name:
			out[key] = string(v)
		case core.Number, core.Bool:
			out[key] = v.String()
		}
	}
	return out, nil
}

// process runs load, page selection, revival, garbage collection and id
// normalization in that order.
func (p *Pipeline) process(ctx context.Context) (*core.Document, error) {
	if p.err != nil {
		return nil, p.err
	}
	logger := p.log()

	doc, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	if p.options.pages != nil {
		tree, err := graph.KeepOnlyPages(doc, p.options.pages)
		if err != nil {
			return nil, fmt.Errorf("failed to select pages: %w", err)
		}
		logger.Debug("selected pages", "pages", p.options.pages, "tree", tree)
	}

	if p.options.reviveContents {
		if err := contentstream.Revive(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to revive contents: %w", err)
		}
		logger.Debug("revived page contents")
	}

	if p.options.garbage() {
		removed, err := graph.CollectGarbage(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to collect garbage: %w", err)
		}
		logger.Debug("collected garbage", "removed", len(removed), "remaining", doc.Len())
	}

	if p.options.normalizeIDs {
		if err := graph.NormalizeIDs(doc); err != nil {
			return nil, fmt.Errorf("failed to normalize ids: %w", err)
		}
	}
	return doc, nil
}

// load produces a document the pipeline may change freely.
func (p *Pipeline) load(ctx context.Context) (*core.Document, error) {
	if p.doc != nil {
		return copyDocument(p.doc), nil
	}

	logger := p.log()
	data := p.data
	if data == nil {
		if p.location == "" {
			return nil, fmt.Errorf("no source specified")
		}
		loader := p.loader
		if loader == nil {
			loader = source.NewAuto(p.options.allowLocal, logger)
		}
		var err error
		data, err = loader.Load(ctx, p.location)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", p.location, err)
		}
	}

	doc, err := reader.Parse(data, p.options.password, reader.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	logger.Debug("parsed document", "version", doc.Version, "objects", doc.Len())
	return doc, nil
}

// copyDocument deep-copies every container so edits to the copy never
// reach the original.
func copyDocument(doc *core.Document) *core.Document {
	out := core.NewDocument(doc.Version)
	for _, id := range doc.IDs() {
		obj, _ := doc.Object(id)
		out.SetObject(id, core.Clone(obj))
	}
	if doc.Trailer != nil {
		out.Trailer = core.Clone(doc.Trailer).(core.Dict)
	}
	return out
}
