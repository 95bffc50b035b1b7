package core

import "strconv"

// ObjectStream gives access to the objects packed in a stream of Type
// ObjStm. The stream is decoded once, when it is opened.
type ObjectStream struct {
	data    []byte
	first   int
	numbers []int
	offsets []int
}

// OpenObjectStream decodes s and reads its header of N number/offset pairs.
func OpenObjectStream(s *Stream, resolve ResolveFunc) (*ObjectStream, error) {
	if t, _ := s.Dict.GetName("Type"); t != "ObjStm" {
		return nil, Malformed("stream is not an object stream")
	}
	n, ok := s.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, Malformed("object stream has invalid N")
	}
	first, ok := s.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, Malformed("object stream has invalid First")
	}

	data, err := DecodeStream(s, resolve)
	if err != nil {
		return nil, err
	}
	if first > len(data) {
		return nil, Malformed("object stream First %d exceeds data length %d", first, len(data))
	}

	os := &ObjectStream{data: data, first: first}
	lex := NewLexer(data[:first])
	for i := 0; i < n; i++ {
		numTok, err := lex.NextToken()
		if err != nil {
			return nil, err
		}
		offTok, err := lex.NextToken()
		if err != nil {
			return nil, err
		}
		if numTok.Type != TokenInteger || offTok.Type != TokenInteger {
			return nil, Malformed("object stream header entry %d is not a number pair", i)
		}
		num, _ := strconv.Atoi(string(numTok.Value))
		off, _ := strconv.Atoi(string(offTok.Value))
		os.numbers = append(os.numbers, num)
		os.offsets = append(os.offsets, off)
	}
	return os, nil
}

// Len returns the number of objects in the header
func (os *ObjectStream) Len() int { return len(os.numbers) }

// Object returns the object number and value at header position index.
func (os *ObjectStream) Object(index int) (int, Object, error) {
	if index < 0 || index >= len(os.numbers) {
		return 0, nil, Malformed("object stream index %d out of range [0, %d)", index, len(os.numbers))
	}
	start := os.first + os.offsets[index]
	if start > len(os.data) {
		return 0, nil, Malformed("object stream offset %d out of range", start)
	}
	p := NewParser(os.data)
	p.Lexer().SetPos(start)
	obj, err := p.ParseObject()
	if err != nil {
		return 0, nil, err
	}
	return os.numbers[index], obj, nil
}
