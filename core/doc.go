// Package core provides the PDF object model and the low-level syntax layer
// that reads and writes it.
//
// # Object Model
//
// Every value satisfies the [Object] interface:
//
//   - [Null], [Bool], [Number], [String] and [Name] are the scalar values
//   - [Ref] is a symbolic reference to a top-level object by id
//   - [Array] and [Dict] are the containers
//   - [Stream] is a dictionary plus raw, still encoded bytes
//   - [Content] and [Operator] hold a parsed content stream
//
// Numbers are float64 with no integer/real distinction. References carry
// a string id rather than an object number and generation; "obj12" is the
// id a file object 12 gets when it is read.
//
// A [Document] owns the id-keyed table of top-level objects, the trailer
// and the header version. Objects are enumerated in insertion order.
//
// # Traversal
//
// [Walk] dispatches each value to a [Visitor] method together with the
// [Path] that reaches it. [Lookup] and [Replace] address values by path,
// and [Refs] collects every reference in an object.
//
// # Syntax
//
// The [Lexer] tokenizes PDF bytes and the [Parser] builds objects from
// tokens, including "N G obj ... endobj" definitions with their streams.
// [LoadXRef] follows cross-reference tables and streams through Prev
// chains, and [OpenObjectStream] unpacks compressed objects.
//
// [Encoder] and [Format] produce PDF syntax from objects. Names and
// strings are escaped so that the lexer reads back exactly the bytes that
// were written.
//
// # Filters
//
// [FilterChain] reads a stream's Filter and DecodeParms entries and
// [DecodeFilters] and [EncodeFilters] run the chain. Image codecs such as
// DCTDecode pass through unchanged.
package core
