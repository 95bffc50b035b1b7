// Package pdfgraph provides a fluent API for reading a PDF into an object
// graph, editing it, and writing it back out.
//
// Basic usage:
//
//	data, err := pdfgraph.Open("https://example.com/report.pdf").
//	    Pages(2, 1).
//	    NormalizeIDs().
//	    Bytes(ctx)
//
// As JSON:
//
//	js, err := pdfgraph.Open("report.pdf").
//	    AllowLocalAccess().
//	    ReviveContents().
//	    JSON(ctx)
//
// For finer control the reader, graph, contentstream and writer packages
// can be used directly.
package pdfgraph

import (
	"github.com/tsawler/pdfgraph/config"
	"github.com/tsawler/pdfgraph/core"
)

// Open returns a Pipeline reading the document at location, a path or an
// http(s) URL. Nothing is fetched until a terminal operation runs. Local
// paths are refused unless AllowLocalAccess is set.
//
// Example:
//
//	n, err := pdfgraph.Open("https://example.com/report.pdf").PageCount(ctx)
func Open(location string) *Pipeline {
	return &Pipeline{
		location: location,
		options:  defaultOptions(),
	}
}

// FromBytes returns a Pipeline over PDF bytes already in memory.
//
// Example:
//
//	doc, err := pdfgraph.FromBytes(data).Password("secret").Document(ctx)
func FromBytes(data []byte) *Pipeline {
	return &Pipeline{
		data:    data,
		options: defaultOptions(),
	}
}

// FromDocument returns a Pipeline over a document graph. Terminal
// operations work on a copy, so doc itself is never changed.
//
// Example:
//
//	doc := core.NewDocument("1.7")
//	// ... add objects
//	data, err := pdfgraph.FromDocument(doc).Bytes(ctx)
func FromDocument(doc *core.Document) *Pipeline {
	return &Pipeline{
		doc:     doc,
		options: defaultOptions(),
	}
}

// FromConfig returns a Pipeline configured from a loaded configuration
// file. The logger and the byte source follow the file's log and http
// settings.
//
// Example:
//
//	cfg, err := config.Load("run.yaml")
//	if err != nil {
//	    // handle error
//	}
//	data, err := pdfgraph.FromConfig(cfg).Bytes(ctx)
func FromConfig(cfg *config.Config) *Pipeline {
	p := Open(cfg.Source)
	if err := cfg.Validate(); err != nil {
		p.err = err
		return p
	}

	p.logger = cfg.Logger()
	p.loader = cfg.Loader(p.logger)
	p.options = Options{
		password:        cfg.Password,
		normalizeIDs:    cfg.NormalizeIDs,
		collectGarbage:  cfg.CollectGarbage,
		reviveContents:  cfg.ReviveContents,
		compressContent: cfg.CompressContent,
		allowLocal:      cfg.AllowLocalAccess,
	}
	if len(cfg.Pages) > 0 {
		p.options.pages = append([]int(nil), cfg.Pages...)
	}
	return p
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := pdfgraph.Must(pdfgraph.FromBytes(data).PageCount(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
