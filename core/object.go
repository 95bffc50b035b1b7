package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object represents a PDF value. The set of implementations is closed: every
// value in a Document is one of the types declared in this file.
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType represents the type of PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjNumber
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjRef
	ObjContent
	ObjOperator
)

// String returns the string representation of the object type
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjNumber:
		return "Number"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjRef:
		return "Ref"
	case ObjContent:
		return "Content"
	case ObjOperator:
		return "Operator"
	default:
		return "Unknown"
	}
}

// Encoding tells how the bytes of a stream or inline image are persisted in
// the interchange form.
type Encoding int

const (
	EncodingHex Encoding = iota
	EncodingString
)

func (e Encoding) String() string {
	if e == EncodingString {
		return "string"
	}
	return "hex"
}

// ParseEncoding maps "hex" and "string" to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "hex", "":
		return EncodingHex, nil
	case "string":
		return EncodingString, nil
	}
	return EncodingHex, fmt.Errorf("unknown encoding %q", s)
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Bool represents a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Number represents a PDF numeric value. Integers and reals share one
// representation; integral values print without a fraction.
type Number float64

func (n Number) Type() ObjectType { return ObjNumber }
func (n Number) String() string   { return FormatNumber(float64(n)) }

// Int returns the number truncated to an int.
func (n Number) Int() int { return int(n) }

// FormatNumber prints f in the shortest fixed-point form that reads back
// to the same value.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String represents a PDF string. The Go string holds the raw bytes, which
// need not be valid UTF-8.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return "(" + string(s) + ")" }

// Name represents a PDF name object, without the leading slash
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Ref is a reference to another object in the same Document, by id.
type Ref string

func (r Ref) Type() ObjectType { return ObjRef }
func (r Ref) String() string   { return string(r) + " R" }

// Array represents a PDF array
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, obj := range a {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(describe(obj))
	}
	sb.WriteString("]")
	return sb.String()
}

// Dict represents a PDF dictionary
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }
func (d Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for _, key := range d.Keys() {
		sb.WriteString(" /")
		sb.WriteString(key)
		sb.WriteString(" ")
		sb.WriteString(describe(d[key]))
	}
	sb.WriteString(" >>")
	return sb.String()
}

// Get retrieves a value from the dictionary
func (d Dict) Get(key string) Object {
	return d[key]
}

// GetName retrieves a name value from the dictionary
func (d Dict) GetName(key string) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// GetNumber retrieves a numeric value from the dictionary
func (d Dict) GetNumber(key string) (Number, bool) {
	n, ok := d[key].(Number)
	return n, ok
}

// GetInt retrieves a numeric value from the dictionary as an int
func (d Dict) GetInt(key string) (int, bool) {
	n, ok := d[key].(Number)
	return int(n), ok
}

// GetString retrieves a string value from the dictionary
func (d Dict) GetString(key string) (String, bool) {
	s, ok := d[key].(String)
	return s, ok
}

// GetBool retrieves a boolean value from the dictionary
func (d Dict) GetBool(key string) (Bool, bool) {
	b, ok := d[key].(Bool)
	return b, ok
}

// GetArray retrieves an array value from the dictionary
func (d Dict) GetArray(key string) (Array, bool) {
	a, ok := d[key].(Array)
	return a, ok
}

// GetDict retrieves a dictionary value from the dictionary
func (d Dict) GetDict(key string) (Dict, bool) {
	dict, ok := d[key].(Dict)
	return dict, ok
}

// GetStream retrieves a stream value from the dictionary
func (d Dict) GetStream(key string) (*Stream, bool) {
	s, ok := d[key].(*Stream)
	return s, ok
}

// GetRef retrieves a reference from the dictionary
func (d Dict) GetRef(key string) (Ref, bool) {
	r, ok := d[key].(Ref)
	return r, ok
}

// Has reports whether the key is present
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Set sets a value in the dictionary
func (d Dict) Set(key string, value Object) {
	d[key] = value
}

// Delete removes a key from the dictionary
func (d Dict) Delete(key string) {
	delete(d, key)
}

// Keys returns the dictionary keys in sorted order
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stream is a dictionary plus raw (still filtered) data. Encoding only
// affects the interchange form.
type Stream struct {
	Dict     Dict
	Encoding Encoding
	Data     []byte
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("%s stream[%d bytes]", s.Dict.String(), len(s.Data))
}

// Content is a tokenized content stream. Items are *Operator values, nested
// Content groups opened by a grouping operator, or operands that no operator
// consumed.
type Content []Object

func (c Content) Type() ObjectType { return ObjContent }
func (c Content) String() string {
	return fmt.Sprintf("content[%d items]", len(c))
}

// Operator is one content-stream instruction with the operands it consumed.
// Data holds inline image bytes and is only set on EI.
type Operator struct {
	Cmd         string
	Description string
	Args        []Object
	Data        []byte
	Encoding    Encoding
}

func (o *Operator) Type() ObjectType { return ObjOperator }
func (o *Operator) String() string {
	var sb strings.Builder
	for _, a := range o.Args {
		sb.WriteString(describe(a))
		sb.WriteString(" ")
	}
	sb.WriteString(o.Cmd)
	return sb.String()
}

func describe(obj Object) string {
	if obj == nil {
		return "<nil>"
	}
	return obj.String()
}

// ObjectID returns the id given to the object numbered n in a parsed file.
func ObjectID(n int) string {
	return "obj" + strconv.Itoa(n)
}

// Clone returns a deep copy of obj.
func Clone(obj Object) Object {
	switch v := obj.(type) {
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case Dict:
		out := make(Dict, len(v))
		for k, item := range v {
			out[k] = Clone(item)
		}
		return out
	case *Stream:
		return &Stream{
			Dict:     Clone(v.Dict).(Dict),
			Encoding: v.Encoding,
			Data:     append([]byte(nil), v.Data...),
		}
	case Content:
		out := make(Content, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case *Operator:
		op := &Operator{Cmd: v.Cmd, Description: v.Description, Encoding: v.Encoding}
		if v.Args != nil {
			op.Args = make([]Object, len(v.Args))
			for i, a := range v.Args {
				op.Args[i] = Clone(a)
			}
		}
		if v.Data != nil {
			op.Data = append([]byte(nil), v.Data...)
		}
		return op
	default:
		return obj
	}
}
