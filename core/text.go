package core

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16BOM = []byte{0xFE, 0xFF}

// DecodeTextString converts a PDF text string (Info entries, outline
// titles) to UTF-8. Strings starting with the UTF-16BE byte order mark are
// UTF-16; anything else is read as Latin-1, which agrees with
// PDFDocEncoding on every printable ASCII and most accented characters.
func DecodeTextString(s String) string {
	raw := []byte(s)
	if bytes.HasPrefix(raw, utf16BOM) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// EncodeTextString converts UTF-8 text to a PDF text string. Text that
// fits in Latin-1 stays single-byte; anything else becomes UTF-16BE with a
// byte order mark.
func EncodeTextString(text string) String {
	if out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text)); err == nil {
		return String(out)
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		return String(text)
	}
	return String(out)
}
