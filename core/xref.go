package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// XRefEntry is one cross-reference entry. Compressed entries live inside
// object stream StreamNum at position Index.
type XRefEntry struct {
	Offset     int
	Generation int
	InUse      bool
	Compressed bool
	StreamNum  int
	Index      int
}

// XRefTable maps object numbers to their entries
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Merge adds entries and trailer keys from an older section without
// overriding what this (newer) table already has.
func (x *XRefTable) Merge(older *XRefTable) {
	for num, entry := range older.Entries {
		if _, ok := x.Entries[num]; !ok {
			x.Entries[num] = entry
		}
	}
	for k, v := range older.Trailer {
		if _, ok := x.Trailer[k]; !ok {
			x.Trailer[k] = v
		}
	}
}

// FindStartXRef returns the offset named after the last startxref keyword
func FindStartXRef(data []byte) (int, error) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return 0, Malformed("startxref not found")
	}
	lex := NewLexer(data)
	lex.SetPos(idx + len("startxref"))
	tok, err := lex.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, &MalformedObjectError{Offset: idx, Reason: "startxref is not followed by an offset"}
	}
	off, err := strconv.Atoi(string(tok.Value))
	if err != nil || off < 0 || off >= len(data) {
		return 0, &MalformedObjectError{Offset: idx, Reason: "startxref offset out of range"}
	}
	return off, nil
}

// LoadXRef reads the cross-reference section at offset and every section
// reachable through Prev and XRefStm. Newer sections win.
func LoadXRef(data []byte, offset int) (*XRefTable, error) {
	result := NewXRefTable()
	seen := make(map[int]bool)
	pending := []int{offset}
	first := true

	for len(pending) > 0 {
		off := pending[0]
		pending = pending[1:]
		if seen[off] {
			continue
		}
		seen[off] = true

		section, err := ParseXRefSection(data, off)
		if err != nil {
			return nil, fmt.Errorf("xref at %d: %w", off, err)
		}
		if first {
			result.Trailer = section.Trailer
			first = false
		}
		result.Merge(section)

		// a hybrid file's XRefStm is consulted before its Prev
		if n, ok := section.Trailer.GetInt("XRefStm"); ok {
			pending = append([]int{n}, pending...)
		}
		if n, ok := section.Trailer.GetInt("Prev"); ok {
			pending = append(pending, n)
		}
	}
	return result, nil
}

// ParseXRefSection parses one section: either a classic table starting
// with the xref keyword or a cross-reference stream object.
func ParseXRefSection(data []byte, offset int) (*XRefTable, error) {
	if offset < 0 || offset >= len(data) {
		return nil, Malformed("xref offset %d out of range", offset)
	}
	lex := NewLexer(data)
	lex.SetPos(offset)
	tok, err := lex.PeekToken()
	if err != nil {
		return nil, err
	}
	if tok.Is("xref") {
		lex.NextToken()
		return parseXRefTable(lex)
	}
	return parseXRefStream(data, offset)
}

func parseXRefTable(lex *Lexer) (*XRefTable, error) {
	table := NewXRefTable()
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Is("trailer") {
			trailer, err := NewParserFor(lex).ParseObject()
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			dict, ok := trailer.(Dict)
			if !ok {
				return nil, &MalformedObjectError{Offset: tok.Pos, Reason: "trailer is not a dictionary"}
			}
			table.Trailer = dict
			return table, nil
		}
		if tok.Type != TokenInteger {
			return nil, &MalformedObjectError{Offset: tok.Pos, Reason: "expected xref subsection header"}
		}
		countTok, err := lex.NextToken()
		if err != nil {
			return nil, err
		}
		if countTok.Type != TokenInteger {
			return nil, &MalformedObjectError{Offset: countTok.Pos, Reason: "expected xref subsection count"}
		}
		first, _ := strconv.Atoi(string(tok.Value))
		count, _ := strconv.Atoi(string(countTok.Value))

		for i := 0; i < count; i++ {
			entry, err := parseXRefEntry(lex)
			if err != nil {
				return nil, err
			}
			table.Entries[first+i] = entry
		}
	}
}

// parseXRefEntry reads "oooooooooo ggggg n|f". Entries are read as tokens,
// so files that use the wrong end-of-line width still parse.
func parseXRefEntry(lex *Lexer) (*XRefEntry, error) {
	offTok, err := lex.NextToken()
	if err != nil {
		return nil, err
	}
	genTok, err := lex.NextToken()
	if err != nil {
		return nil, err
	}
	flagTok, err := lex.NextToken()
	if err != nil {
		return nil, err
	}
	if offTok.Type != TokenInteger || genTok.Type != TokenInteger || !(flagTok.Is("n") || flagTok.Is("f")) {
		return nil, &MalformedObjectError{Offset: offTok.Pos, Reason: "invalid xref entry"}
	}
	off, _ := strconv.Atoi(string(offTok.Value))
	gen, _ := strconv.Atoi(string(genTok.Value))
	return &XRefEntry{Offset: off, Generation: gen, InUse: flagTok.Is("n")}, nil
}

func parseXRefStream(data []byte, offset int) (*XRefTable, error) {
	p := NewParser(data)
	p.Lexer().SetPos(offset)
	_, obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, &MalformedObjectError{Offset: offset, Reason: "xref offset does not point at a table or stream"}
	}
	if t, _ := stream.Dict.GetName("Type"); t != "XRef" {
		return nil, &MalformedObjectError{Offset: offset, Reason: "stream is not a cross-reference stream"}
	}

	decoded, err := DecodeStream(stream, nil)
	if err != nil {
		return nil, err
	}

	widthsObj, _ := stream.Dict.GetArray("W")
	if len(widthsObj) != 3 {
		return nil, &MalformedObjectError{Offset: offset, Reason: "xref stream W must have three entries"}
	}
	var w [3]int
	for i, o := range widthsObj {
		n, ok := o.(Number)
		if !ok || n < 0 || n > 8 {
			return nil, &MalformedObjectError{Offset: offset, Reason: "invalid xref stream W"}
		}
		w[i] = int(n)
	}
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return nil, &MalformedObjectError{Offset: offset, Reason: "xref stream rows are empty"}
	}

	size, _ := stream.Dict.GetInt("Size")
	index := []int{0, size}
	if idxArr, ok := stream.Dict.GetArray("Index"); ok {
		index = index[:0]
		for _, o := range idxArr {
			n, _ := o.(Number)
			index = append(index, int(n))
		}
	}

	table := NewXRefTable()
	trailer := make(Dict, len(stream.Dict))
	for k, v := range stream.Dict {
		switch k {
		case "Type", "W", "Index", "Length", "Filter", "DecodeParms":
		default:
			trailer[k] = v
		}
	}
	table.Trailer = trailer

	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(decoded) {
				return table, nil
			}
			row := decoded[pos : pos+rowLen]
			pos += rowLen

			kind := 1
			if w[0] > 0 {
				kind = int(readField(row[:w[0]]))
			}
			f2 := readField(row[w[0] : w[0]+w[1]])
			f3 := readField(row[w[0]+w[1]:])

			var entry *XRefEntry
			switch kind {
			case 0:
				entry = &XRefEntry{Generation: int(f3)}
			case 1:
				entry = &XRefEntry{Offset: int(f2), Generation: int(f3), InUse: true}
			case 2:
				entry = &XRefEntry{InUse: true, Compressed: true, StreamNum: int(f2), Index: int(f3)}
			default:
				// unknown types are treated as null references
				continue
			}
			table.Entries[start+j] = entry
		}
	}
	return table, nil
}

func readField(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
