package core

import (
	"bytes"
	"strconv"
)

// LengthResolver resolves an indirect stream Length while the document is
// still being read.
type LengthResolver func(ref Ref) (int, bool)

// Parser builds objects from the tokens of a Lexer. References "n g R"
// become Ref values named by ObjectID.
type Parser struct {
	lex    *Lexer
	length LengthResolver
	noRefs bool
}

// NewParser creates a parser over data
func NewParser(data []byte) *Parser {
	return &Parser{lex: NewLexer(data)}
}

// NewParserFor creates a parser sharing an existing lexer
func NewParserFor(lex *Lexer) *Parser {
	return &Parser{lex: lex}
}

// Lexer returns the underlying lexer
func (p *Parser) Lexer() *Lexer { return p.lex }

// SetLengthResolver installs the resolver used for indirect stream lengths
func (p *Parser) SetLengthResolver(fn LengthResolver) {
	p.length = fn
}

// DisableRefs turns off "n g R" recognition. Content streams contain no
// references, so there R is an ordinary keyword.
func (p *Parser) DisableRefs() {
	p.noRefs = true
}

// ParseObject parses the next direct object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	return p.ParseToken(tok)
}

// ParseToken builds the object that starts with tok, reading further
// tokens for arrays, dictionaries and references.
func (p *Parser) ParseToken(tok Token) (Object, error) {
	switch tok.Type {
	case TokenInteger:
		if !p.noRefs {
			if ref, ok := p.tryRef(tok); ok {
				return ref, nil
			}
		}
		return tok.Number(), nil
	case TokenReal:
		return tok.Number(), nil
	case TokenString, TokenHexString:
		return String(tok.Value), nil
	case TokenName:
		return Name(tok.Value), nil
	case TokenArrayStart:
		return p.parseArray(tok.Pos)
	case TokenDictStart:
		return p.parseDict(tok.Pos)
	case TokenArrayEnd, TokenDictEnd, TokenBraceEnd:
		return nil, &UnbalancedDelimiterError{Delimiter: string(tok.Value), Offset: tok.Pos}
	case TokenKeyword:
		switch string(tok.Value) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		}
		return nil, &MalformedObjectError{Offset: tok.Pos, Reason: "unexpected keyword " + strconv.Quote(string(tok.Value))}
	case TokenEOF:
		return nil, &MalformedObjectError{Offset: tok.Pos, Reason: "unexpected end of data"}
	}
	return nil, &MalformedObjectError{Offset: tok.Pos, Reason: "unexpected token " + strconv.Quote(string(tok.Value))}
}

// tryRef looks ahead for "gen R" after an integer and rewinds if absent.
func (p *Parser) tryRef(num Token) (Ref, bool) {
	save := p.lex.Pos()
	gen, err := p.lex.NextToken()
	if err == nil && gen.Type == TokenInteger {
		r, err := p.lex.NextToken()
		if err == nil && r.Is("R") {
			n, convErr := strconv.Atoi(string(num.Value))
			if convErr == nil && n >= 0 {
				return Ref(ObjectID(n)), true
			}
		}
	}
	p.lex.SetPos(save)
	return "", false
}

func (p *Parser) parseArray(start int) (Object, error) {
	arr := Array{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, &MalformedObjectError{Offset: start, Reason: "unterminated array"}
		}
		obj, err := p.ParseToken(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict(start int) (Object, error) {
	dict := Dict{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, &MalformedObjectError{Offset: start, Reason: "unterminated dictionary"}
		case TokenName:
		case TokenArrayEnd, TokenBraceEnd:
			return nil, &UnbalancedDelimiterError{Delimiter: string(tok.Value), Offset: tok.Pos}
		default:
			return nil, &MalformedObjectError{Offset: tok.Pos, Reason: "dictionary key is not a name"}
		}

		key := string(tok.Value)
		next, err := p.lex.PeekToken()
		if err != nil {
			return nil, err
		}
		if next.Type == TokenDictEnd {
			// key without a value
			dict[key] = Null{}
			continue
		}
		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "n g obj ... endobj" and returns the object
// number with the value. A dictionary followed by "stream" becomes a Stream.
func (p *Parser) ParseIndirectObject() (int, Object, error) {
	numTok, err := p.lex.NextToken()
	if err != nil {
		return 0, nil, err
	}
	genTok, err := p.lex.NextToken()
	if err != nil {
		return 0, nil, err
	}
	objTok, err := p.lex.NextToken()
	if err != nil {
		return 0, nil, err
	}
	if numTok.Type != TokenInteger || genTok.Type != TokenInteger || !objTok.Is("obj") {
		return 0, nil, &MalformedObjectError{Offset: numTok.Pos, Reason: "expected object header"}
	}
	num, err := strconv.Atoi(string(numTok.Value))
	if err != nil {
		return 0, nil, &MalformedObjectError{Offset: numTok.Pos, Reason: "bad object number"}
	}

	obj, err := p.ParseObject()
	if err != nil {
		return num, nil, err
	}

	next, err := p.lex.PeekToken()
	if err != nil {
		return num, nil, err
	}
	if dict, ok := obj.(Dict); ok && next.Is("stream") {
		p.lex.NextToken()
		stream, err := p.parseStream(num, dict)
		if err != nil {
			return num, nil, err
		}
		obj = stream
		next, err = p.lex.PeekToken()
		if err != nil {
			return num, nil, err
		}
	}
	if next.Is("endobj") {
		p.lex.NextToken()
	}
	return num, obj, nil
}

var endstream = []byte("endstream")

// parseStream reads the raw bytes after the stream keyword. The declared
// Length is trusted when endstream follows it; otherwise the data runs to
// the next endstream.
func (p *Parser) parseStream(num int, dict Dict) (*Stream, error) {
	p.lex.SkipEOL()
	start := p.lex.Pos()
	data := p.lex.Data()

	if n, ok := p.declaredLength(dict); ok && start+n <= len(data) {
		end := start + n
		rest := data[end:]
		trimmed := bytes.TrimLeft(rest, "\x00\t\n\f\r ")
		if bytes.HasPrefix(trimmed, endstream) {
			p.lex.SetPos(end + (len(rest) - len(trimmed)) + len(endstream))
			return &Stream{Dict: dict, Encoding: StreamEncoding(dict), Data: data[start:end]}, nil
		}
	}

	idx := bytes.Index(data[start:], endstream)
	if idx < 0 {
		return nil, &InvalidStreamDataError{ID: ObjectID(num), Reason: "missing endstream"}
	}
	end := start + idx
	if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	p.lex.SetPos(start + idx + len(endstream))
	return &Stream{Dict: dict, Encoding: StreamEncoding(dict), Data: data[start:end]}, nil
}

func (p *Parser) declaredLength(dict Dict) (int, bool) {
	switch v := dict["Length"].(type) {
	case Number:
		if v >= 0 {
			return int(v), true
		}
	case Ref:
		if p.length != nil {
			return p.length(v)
		}
	}
	return 0, false
}
