package core

import (
	"bytes"
	"strconv"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF         TokenType = iota
	TokenComment               // % to end of line
	TokenKeyword               // true, false, null, obj, stream, content operators
	TokenInteger               // 123
	TokenReal                  // 3.14
	TokenString                // (hello)
	TokenHexString             // <48656C6C6F>, Value holds the decoded bytes
	TokenName                  // /Type
	TokenArrayStart            // [
	TokenArrayEnd              // ]
	TokenDictStart             // <<
	TokenDictEnd               // >>
	TokenBraceStart            // {
	TokenBraceEnd              // }
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int
}

// Is reports whether the token is the keyword kw
func (t Token) Is(kw string) bool {
	return t.Type == TokenKeyword && string(t.Value) == kw
}

// Number returns the numeric value of an integer or real token
func (t Token) Number() Number {
	f, err := strconv.ParseFloat(string(t.Value), 64)
	if err != nil {
		return 0
	}
	return Number(f)
}

// Lexer splits PDF syntax into tokens. It works on an in-memory buffer so
// callers can reposition it and read raw bytes between tokens, which both
// stream bodies and inline images need.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a new lexer
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Pos returns the offset of the next unread byte
func (l *Lexer) Pos() int { return l.pos }

// SetPos moves the read position
func (l *Lexer) SetPos(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.data) {
		pos = len(l.data)
	}
	l.pos = pos
}

// Data returns the underlying buffer
func (l *Lexer) Data() []byte { return l.data }

// NextToken returns the next token, skipping whitespace and comments.
func (l *Lexer) NextToken() (Token, error) {
	for {
		tok, err := l.next()
		if err != nil || tok.Type != TokenComment {
			return tok, err
		}
	}
}

// PeekToken returns the next token without consuming it.
func (l *Lexer) PeekToken() (Token, error) {
	pos := l.pos
	tok, err := l.NextToken()
	l.pos = pos
	return tok, err
}

func (l *Lexer) next() (Token, error) {
	l.SkipWhitespace()

	if l.pos >= len(l.data) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}
	start := l.pos
	b := l.data[l.pos]

	switch b {
	case '%':
		return l.readComment(), nil
	case '[':
		l.pos++
		return Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: start}, nil
	case ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: start}, nil
	case '{':
		l.pos++
		return Token{Type: TokenBraceStart, Value: []byte{'{'}, Pos: start}, nil
	case '}':
		l.pos++
		return Token{Type: TokenBraceEnd, Value: []byte{'}'}, Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Value: []byte("<<"), Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: start}, nil
		}
		return Token{}, &MalformedObjectError{Offset: start, Reason: "unexpected '>'"}
	case ')':
		return Token{}, &MalformedObjectError{Offset: start, Reason: "unexpected ')'"}
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber(), nil
	}
	return l.readKeyword(), nil
}

// SkipWhitespace advances past PDF whitespace
func (l *Lexer) SkipWhitespace() {
	for l.pos < len(l.data) && IsWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// readComment reads a comment (% to end of line)
func (l *Lexer) readComment() Token {
	start := l.pos
	for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
		l.pos++
	}
	return Token{Type: TokenComment, Value: l.data[start:l.pos], Pos: start}
}

// readString reads a literal string (hello)
func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // (
	var buf bytes.Buffer

	depth := 1
	for {
		if l.pos >= len(l.data) {
			return Token{}, &MalformedObjectError{Offset: start, Reason: "unterminated string"}
		}
		b := l.data[l.pos]
		l.pos++

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(b)
		case '\\':
			if l.pos >= len(l.data) {
				return Token{}, &MalformedObjectError{Offset: start, Reason: "unterminated string"}
			}
			next := l.data[l.pos]
			l.pos++
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				// line continuation
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := int(next - '0')
				for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
					val = val*8 + int(l.data[l.pos]-'0')
					l.pos++
				}
				buf.WriteByte(byte(val))
			default:
				// covers \( \) \\ and unknown escapes
				buf.WriteByte(next)
			}
		case '\r':
			// an unescaped end-of-line in a string reads as a single LF
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

// readHexString reads a hexadecimal string and returns its decoded bytes.
// An odd final digit is completed with 0.
func (l *Lexer) readHexString() (Token, error) {
	start := l.pos
	l.pos++ // <
	var buf bytes.Buffer
	var hi byte
	half := false

	for {
		if l.pos >= len(l.data) {
			return Token{}, &MalformedObjectError{Offset: start, Reason: "unterminated hex string"}
		}
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			break
		}
		if IsWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return Token{}, &MalformedObjectError{Offset: l.pos - 1, Reason: "invalid hex digit " + strconv.QuoteRune(rune(b))}
		}
		if half {
			buf.WriteByte(hi<<4 | hexValue(b))
		} else {
			hi = hexValue(b)
		}
		half = !half
	}
	if half {
		buf.WriteByte(hi << 4)
	}
	return Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
}

// readName reads a name object /Type, resolving #xx escapes
func (l *Lexer) readName() (Token, error) {
	start := l.pos
	l.pos++ // /
	var buf bytes.Buffer

	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if IsWhitespace(b) || IsDelimiter(b) {
			break
		}
		l.pos++
		if b == '#' && l.pos+1 < len(l.data) && isHexDigit(l.data[l.pos]) && isHexDigit(l.data[l.pos+1]) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}

	return Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber reads an integer or real number
func (l *Lexer) readNumber() Token {
	start := l.pos
	hasDecimal := false
	if b := l.data[l.pos]; b == '-' || b == '+' {
		l.pos++
	}
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '.' && !hasDecimal {
			hasDecimal = true
		} else if !isDigit(b) {
			break
		}
		l.pos++
	}

	tokenType := TokenInteger
	if hasDecimal {
		tokenType = TokenReal
	}
	value := l.data[start:l.pos]
	// a lone sign or dot reads as zero
	if len(bytes.Trim(value, "+-.")) == 0 {
		value = []byte("0")
	}
	return Token{Type: tokenType, Value: value, Pos: start}
}

// readKeyword reads a run of regular characters
func (l *Lexer) readKeyword() Token {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if IsWhitespace(b) || IsDelimiter(b) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		// a delimiter the switch above did not claim
		l.pos++
	}
	return Token{Type: TokenKeyword, Value: l.data[start:l.pos], Pos: start}
}

// ReadBytes reads exactly n raw bytes
func (l *Lexer) ReadBytes(n int) ([]byte, bool) {
	if n < 0 || l.pos+n > len(l.data) {
		return nil, false
	}
	b := l.data[l.pos : l.pos+n]
	l.pos += n
	return b, true
}

// SkipEOL skips the end-of-line marker that follows the stream keyword:
// CRLF, LF, or a lone CR.
func (l *Lexer) SkipEOL() {
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}
}

// IsWhitespace reports PDF whitespace: NUL, HT, LF, FF, CR and space.
func IsWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

// IsDelimiter reports the PDF delimiter characters.
func IsDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
