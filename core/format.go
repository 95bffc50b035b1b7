package core

import (
	"bytes"
	"math"
	"strconv"
)

// RefFunc renders a reference in an indirect-object body, typically
// "n 0 R". A nil RefFunc makes references an error.
type RefFunc func(r Ref) (string, error)

// Encoder writes values in PDF syntax. It is a Visitor: composite values
// drive their own children so separators land between them.
type Encoder struct {
	buf  *bytes.Buffer
	refs RefFunc
}

// NewEncoder creates an encoder writing into buf
func NewEncoder(buf *bytes.Buffer, refs RefFunc) *Encoder {
	return &Encoder{buf: buf, refs: refs}
}

// Encode writes obj
func (e *Encoder) Encode(obj Object) error {
	return Walk(obj, e)
}

// Format returns the PDF syntax for obj. References are not allowed.
func Format(obj Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, nil).Encode(obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) VisitNull(Path) error {
	e.buf.WriteString("null")
	return nil
}

func (e *Encoder) VisitBool(b Bool, _ Path) error {
	e.buf.WriteString(b.String())
	return nil
}

func (e *Encoder) VisitNumber(n Number, _ Path) error {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	e.buf.WriteString(FormatNumber(f))
	return nil
}

func (e *Encoder) VisitString(s String, _ Path) error {
	e.buf.WriteString(EscapeString(string(s)))
	return nil
}

func (e *Encoder) VisitName(n Name, _ Path) error {
	e.buf.WriteString(EscapeName(string(n)))
	return nil
}

func (e *Encoder) VisitRef(r Ref, path Path) error {
	if e.refs == nil {
		return Malformed("reference %s cannot be written here", string(r))
	}
	s, err := e.refs(r)
	if err != nil {
		return err
	}
	e.buf.WriteString(s)
	return nil
}

func (e *Encoder) VisitArray(a Array, _ Path) (bool, error) {
	e.buf.WriteByte('[')
	for i, item := range a {
		if i > 0 {
			e.buf.WriteByte(' ')
		}
		if err := Walk(item, e); err != nil {
			return false, err
		}
	}
	e.buf.WriteByte(']')
	return false, nil
}

func (e *Encoder) VisitDict(d Dict, _ Path) (bool, error) {
	e.buf.WriteString("<<")
	for _, key := range d.Keys() {
		e.buf.WriteByte(' ')
		e.buf.WriteString(EscapeName(key))
		e.buf.WriteByte(' ')
		if err := Walk(d[key], e); err != nil {
			return false, err
		}
	}
	e.buf.WriteString(" >>")
	return false, nil
}

// VisitStream writes the dictionary followed by the raw data. Length is
// written as found; callers that changed Data fix it first.
func (e *Encoder) VisitStream(s *Stream, _ Path) (bool, error) {
	if _, err := e.VisitDict(s.Dict, nil); err != nil {
		return false, err
	}
	e.buf.WriteString("\nstream\n")
	e.buf.Write(s.Data)
	e.buf.WriteString("\nendstream")
	return false, nil
}

// VisitContent writes content-stream syntax: one item per line, groups
// flattened in place.
func (e *Encoder) VisitContent(c Content, _ Path) (bool, error) {
	for i, item := range c {
		if i > 0 {
			e.buf.WriteByte('\n')
		}
		if err := Walk(item, e); err != nil {
			return false, err
		}
	}
	return false, nil
}

// VisitOperator writes the operands, then inline image data if any, then
// the operator. Image data is followed by a newline so the EI that ends it
// can be found again.
func (e *Encoder) VisitOperator(op *Operator, _ Path) (bool, error) {
	for _, arg := range op.Args {
		if err := Walk(arg, e); err != nil {
			return false, err
		}
		e.buf.WriteByte(' ')
	}
	if op.Data != nil {
		e.buf.Write(op.Data)
		e.buf.WriteByte('\n')
	}
	e.buf.WriteString(op.Cmd)
	return false, nil
}

// EscapeName renders a name with its slash. Bytes outside the printable
// range, '#', and the delimiters are written as #xx.
func EscapeName(name string) string {
	var sb bytes.Buffer
	sb.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x21 || c > 0x7e || c == '#' || IsDelimiter(c) {
			sb.WriteByte('#')
			sb.WriteByte(lowerHex[c>>4])
			sb.WriteByte(lowerHex[c&0x0f])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

const lowerHex = "0123456789abcdef"

// EscapeString renders a literal string with its parentheses. Parentheses,
// backslash and every byte outside printable ASCII become \ddd escapes.
func EscapeString(s string) string {
	var sb bytes.Buffer
	sb.WriteByte('(')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e || c == '(' || c == ')' || c == '\\' {
			sb.WriteByte('\\')
			oct := strconv.FormatInt(int64(c), 8)
			for j := len(oct); j < 3; j++ {
				sb.WriteByte('0')
			}
			sb.WriteString(oct)
			continue
		}
		sb.WriteByte(c)
	}
	sb.WriteByte(')')
	return sb.String()
}
