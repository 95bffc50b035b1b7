package writer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/pdfgraph/core"
)

const (
	defaultVersion = "1.7"
	binaryMarker   = "%\xD0\xC4\xC6\xAE\xEA\xF3\n"
)

// Option configures serialization
type Option func(*Writer)

// WithCompressContent Flate-encodes content trees when they are written
// back as streams.
func WithCompressContent() Option {
	return func(w *Writer) {
		w.compress = true
	}
}

// Writer serializes documents. The zero value writes content trees
// uncompressed.
type Writer struct {
	compress bool

	slots   map[string]int
	owner   string
	offsets []int
	buf     bytes.Buffer
}

// Serialize returns doc as a PDF file. Objects get slots 1..n in
// enumeration order and the file ends with a classic xref table.
func Serialize(doc *core.Document, opts ...Option) ([]byte, error) {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.serialize(doc); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// Write serializes doc into out. Nothing is written when serialization
// fails.
func Write(out io.Writer, doc *core.Document, opts ...Option) error {
	data, err := Serialize(doc, opts...)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return &core.IOError{Location: "output", Err: err}
	}
	return nil
}

func (w *Writer) serialize(doc *core.Document) error {
	ids := doc.IDs()
	w.slots = make(map[string]int, len(ids))
	for i, id := range ids {
		w.slots[id] = i + 1
	}

	version := doc.Version
	if version == "" {
		version = defaultVersion
	}
	fmt.Fprintf(&w.buf, "%%PDF-%s\n%s", version, binaryMarker)

	w.offsets = make([]int, 0, len(ids))
	for i, id := range ids {
		obj, _ := doc.Object(id)
		if err := w.writeObject(i+1, id, obj); err != nil {
			return err
		}
	}

	xrefOffset := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", len(ids)+1)
	w.buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n\r\n", off)
	}

	trailer := make(core.Dict, len(doc.Trailer)+1)
	for k, v := range doc.Trailer {
		switch k {
		case "Prev", "XRefStm":
			continue
		}
		trailer[k] = v
	}
	trailer["Size"] = core.Number(len(ids) + 1)

	w.owner = core.TrailerID
	w.buf.WriteString("trailer\n")
	if err := core.NewEncoder(&w.buf, w.ref).Encode(trailer); err != nil {
		return fmt.Errorf("trailer: %w", err)
	}
	fmt.Fprintf(&w.buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}

// writeObject records the offset of the object header before writing it
func (w *Writer) writeObject(slot int, id string, obj core.Object) error {
	w.owner = id
	body, err := w.prepare(obj)
	if err != nil {
		return fmt.Errorf("object %s: %w", id, err)
	}

	fmt.Fprintf(&w.buf, "%%object:%s\n", commentSafe(id))
	w.offsets = append(w.offsets, w.buf.Len())
	fmt.Fprintf(&w.buf, "%d 0 obj\n", slot)
	if err := core.NewEncoder(&w.buf, w.ref).Encode(body); err != nil {
		return fmt.Errorf("object %s: %w", id, err)
	}
	w.buf.WriteString("\nendobj\n")
	return nil
}

// prepare turns a content tree into a stream and fixes stream lengths.
// The document itself is not modified.
func (w *Writer) prepare(obj core.Object) (core.Object, error) {
	switch v := obj.(type) {
	case core.Content:
		var data bytes.Buffer
		if err := core.NewEncoder(&data, w.ref).Encode(v); err != nil {
			return nil, err
		}
		dict := core.Dict{}
		raw := data.Bytes()
		if w.compress {
			chain := []core.FilterSpec{{Name: "FlateDecode"}}
			encoded, err := core.EncodeFilters(chain, raw)
			if err != nil {
				return nil, err
			}
			raw = encoded
			dict["Filter"] = core.Name("FlateDecode")
		}
		dict["Length"] = core.Number(len(raw))
		return &core.Stream{Dict: dict, Encoding: core.StreamEncoding(dict), Data: raw}, nil

	case *core.Stream:
		if n, ok := v.Dict["Length"].(core.Number); ok && n == core.Number(len(v.Data)) {
			return v, nil
		}
		dict := make(core.Dict, len(v.Dict))
		for k, item := range v.Dict {
			dict[k] = item
		}
		dict["Length"] = core.Number(len(v.Data))
		return &core.Stream{Dict: dict, Encoding: v.Encoding, Data: v.Data}, nil
	}
	return obj, nil
}

func (w *Writer) ref(r core.Ref) (string, error) {
	slot, ok := w.slots[string(r)]
	if !ok {
		return "", &core.DanglingReferenceError{ID: string(r), From: w.owner}
	}
	return fmt.Sprintf("%d 0 R", slot), nil
}

// commentSafe keeps an id on its comment line
func commentSafe(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, id)
}
