// Package projection converts documents to and from a JSON form meant for
// tools that want to inspect or edit a PDF without a PDF parser.
//
// Scalars map to JSON scalars. Strings carry one rune per byte, so binary
// strings survive unchanged. Every other value is a record tagged by its
// first key:
//
//	{"name": "Type"}
//	{"ref": "obj4"}
//	{"dictionary": {"Type": {"name": "Page"}, ...}}
//	{"stream": {"dictionary": ...}, "encoding": "hex", "data": "789c..."}
//	{"content": [...]}
//	{"cmd": "Tf", "description": "setFont", "args": [{"name": "F1"}, 12]}
//
// Stream and inline image data is written as hex unless its first filter
// is a text filter, in which case it is written as a string. Nested
// content groups are written as {"content": [...]} records.
package projection
