// Package writer serializes a [core.Document] to PDF bytes.
//
// Objects are numbered 1..n in the document's enumeration order and every
// reference is rewritten as "n 0 R". Each object is preceded by a
// "%object:<id>" comment naming the id it had in memory, which makes the
// output easy to read next to a JSON projection of the same document.
//
//	data, err := writer.Serialize(doc, writer.WithCompressContent())
//
// Parsed content trees are written back as content streams, Flate-encoded
// when [WithCompressContent] is given. The file always ends with a
// classic cross-reference table of fixed 20-byte lines.
package writer
