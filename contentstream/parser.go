package contentstream

import (
	"bytes"

	"github.com/tsawler/pdfgraph/core"
)

// Parser parses a PDF content stream into a tree of operators. Operators
// that open a group (q, BT, BI, BMC, BDC, BX) start a nested core.Content
// that ends with the matching closing operator.
type Parser struct {
	lex    *core.Lexer
	values *core.Parser

	result core.Content
	stack  []core.Content
	args   []core.Object
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	lex := core.NewLexer(data)
	values := core.NewParserFor(lex)
	values.DisableRefs()
	return &Parser{lex: lex, values: values}
}

// Parse decodes a content stream. It is shorthand for NewParser(data).Parse().
func Parse(data []byte) (core.Content, error) {
	return NewParser(data).Parse()
}

// Parse reads the whole stream. Operands left over at the end are kept as
// trailing items and groups that were never closed are closed.
func (p *Parser) Parse() (core.Content, error) {
	p.result = core.Content{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == core.TokenEOF {
			break
		}

		switch tok.Type {
		case core.TokenKeyword:
			switch string(tok.Value) {
			case "true", "false", "null":
				obj, err := p.values.ParseToken(tok)
				if err != nil {
					return nil, err
				}
				p.args = append(p.args, obj)
				continue
			}
			if err := p.operator(string(tok.Value)); err != nil {
				return nil, err
			}
		case core.TokenBraceStart:
			return nil, &core.MalformedObjectError{Offset: tok.Pos, Reason: "procedure braces are not allowed in content"}
		default:
			obj, err := p.values.ParseToken(tok)
			if err != nil {
				return nil, err
			}
			p.args = append(p.args, obj)
		}
	}

	p.result = append(p.result, p.args...)
	p.args = nil
	for len(p.stack) > 0 {
		p.closeGroup()
	}
	return p.result, nil
}

// operator turns cmd and its operands into an item of the current group.
func (p *Parser) operator(cmd string) error {
	if cmd == "BI" {
		// Operands before an inline image do not belong to it
		p.result = append(p.result, p.args...)
		p.args = nil
	}

	info, known := Ops[cmd]
	op := &core.Operator{Cmd: cmd, Description: info.Description}
	if n := argsToConsume(info, known, len(p.args)); n > 0 {
		split := len(p.args) - n
		op.Args = append([]core.Object(nil), p.args[split:]...)
		p.args = p.args[:split]
	}

	group := info.Group
	if group > 0 {
		p.stack = append(p.stack, p.result)
		p.result = core.Content{}
	}
	p.result = append(p.result, op)

	if cmd == "ID" {
		image, err := p.readImageData(op.Args)
		if err != nil {
			return err
		}
		p.result = append(p.result, image)
		// EI closes the BI group
		group = -1
	}

	if group < 0 && len(p.stack) > 0 {
		p.closeGroup()
	}
	return nil
}

func (p *Parser) closeGroup() {
	inner := p.result
	p.result = p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.result = append(p.result, inner)
}

// readImageData reads the raw bytes of an inline image, which start after
// the whitespace that follows ID, and the EI operator that ends them.
func (p *Parser) readImageData(params []core.Object) (*core.Operator, error) {
	filter := core.CanonicalFilter(inlineFilter(params))

	data := p.lex.Data()
	start := p.lex.Pos()
	var end int
	switch filter {
	case "DCTDecode":
		end = findAfter(data, start, []byte{0xFF, 0xD9})
	case "ASCII85Decode":
		end = findAfter(data, start, []byte("~>"))
	case "ASCIIHexDecode":
		end = findAfter(data, start, []byte(">"))
	default:
		end = findDefaultEnd(data, start)
		if end < 0 {
			return nil, &core.MalformedObjectError{Offset: start, Reason: "inline image without EI"}
		}
	}

	if start < end && core.IsWhitespace(data[start]) {
		start++
	}
	image := append([]byte{}, data[start:end]...)

	p.lex.SetPos(end)
	ei, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	if !ei.Is("EI") {
		return nil, &core.MalformedObjectError{Offset: ei.Pos, Reason: "EI is expected"}
	}

	return &core.Operator{
		Cmd:      "EI",
		Data:     image,
		Encoding: core.FilterEncoding(filter),
	}, nil
}

// inlineFilter returns the first filter named in the key/value operands of
// an inline image, or "" when there is none.
func inlineFilter(params []core.Object) string {
	for i := 0; i+1 < len(params); i += 2 {
		key, _ := params[i].(core.Name)
		if key != "Filter" && key != "F" {
			continue
		}
		switch v := params[i+1].(type) {
		case core.Name:
			return string(v)
		case core.Array:
			if len(v) > 0 {
				if name, ok := v[0].(core.Name); ok {
					return string(name)
				}
			}
		}
		return ""
	}
	return ""
}

// findAfter returns the offset just past the first marker at or after
// start, or the end of data when the marker is missing.
func findAfter(data []byte, start int, marker []byte) int {
	i := bytes.Index(data[start:], marker)
	if i < 0 {
		return len(data)
	}
	return start + i + len(marker)
}

// findDefaultEnd finds whitespace followed by EI and then whitespace, a
// delimiter or the end of data. It returns the offset of that whitespace.
func findDefaultEnd(data []byte, start int) int {
	for i := start; i+2 < len(data); i++ {
		if !core.IsWhitespace(data[i]) || data[i+1] != 'E' || data[i+2] != 'I' {
			continue
		}
		if i+3 == len(data) || core.IsWhitespace(data[i+3]) || core.IsDelimiter(data[i+3]) {
			return i
		}
	}
	return -1
}
