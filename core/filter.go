package core

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfgraph/internal/filters"
)

// FilterSpec is one stage of a stream's filter chain.
type FilterSpec struct {
	Name   string
	Params Dict
}

// ResolveFunc follows references while reading filter chains; nil means
// the values are expected to be direct.
type ResolveFunc func(Object) (Object, error)

// FilterChain reads Filter and DecodeParms from a stream dictionary. The
// abbreviated F and DP keys of inline images are accepted too.
func FilterChain(dict Dict, resolve ResolveFunc) ([]FilterSpec, error) {
	if resolve == nil {
		resolve = func(o Object) (Object, error) { return o, nil }
	}
	filterObj, ok := dict["Filter"]
	if !ok {
		filterObj, ok = dict["F"]
	}
	if !ok {
		return nil, nil
	}
	parmsObj, hasParms := dict["DecodeParms"]
	if !hasParms {
		parmsObj, hasParms = dict["DP"]
	}

	filterObj, err := resolve(filterObj)
	if err != nil {
		return nil, err
	}
	var names []Object
	switch v := filterObj.(type) {
	case Name:
		names = []Object{v}
	case Array:
		names = v
	case Null:
		return nil, nil
	default:
		return nil, Malformed("Filter must be a name or array, got %T", filterObj)
	}

	var parms []Object
	if hasParms {
		parmsObj, err = resolve(parmsObj)
		if err != nil {
			return nil, err
		}
		switch v := parmsObj.(type) {
		case Dict:
			parms = []Object{v}
		case Array:
			parms = v
		}
	}

	chain := make([]FilterSpec, 0, len(names))
	for i, n := range names {
		n, err := resolve(n)
		if err != nil {
			return nil, err
		}
		name, ok := n.(Name)
		if !ok {
			return nil, Malformed("filter name must be a name, got %T", n)
		}
		spec := FilterSpec{Name: string(name)}
		if i < len(parms) {
			p, err := resolve(parms[i])
			if err != nil {
				return nil, err
			}
			if d, ok := p.(Dict); ok {
				spec.Params = d
			}
		}
		chain = append(chain, spec)
	}
	return chain, nil
}

// DecodeFilters applies the chain in order.
func DecodeFilters(chain []FilterSpec, data []byte) ([]byte, error) {
	for _, f := range chain {
		out, err := filters.Decode(f.Name, data, toParams(f.Params))
		if err != nil {
			if errors.Is(err, filters.ErrUnknown) {
				return nil, &UnsupportedFilterError{Name: f.Name}
			}
			return nil, &InvalidStreamDataError{Reason: f.Name, Err: err}
		}
		data = out
	}
	return data, nil
}

// EncodeFilters applies the inverse of the chain, last filter first, so
// that DecodeFilters on the result gives data back.
func EncodeFilters(chain []FilterSpec, data []byte) ([]byte, error) {
	for i := len(chain) - 1; i >= 0; i-- {
		out, err := filters.Encode(chain[i].Name, data, toParams(chain[i].Params))
		if err != nil {
			if errors.Is(err, filters.ErrUnknown) {
				return nil, &UnsupportedFilterError{Name: chain[i].Name}
			}
			return nil, fmt.Errorf("encoding %s: %w", chain[i].Name, err)
		}
		data = out
	}
	return data, nil
}

// DecodeStream returns the fully decoded data of s.
func DecodeStream(s *Stream, resolve ResolveFunc) ([]byte, error) {
	chain, err := FilterChain(s.Dict, resolve)
	if err != nil {
		return nil, err
	}
	return DecodeFilters(chain, s.Data)
}

// StreamEncoding picks how a stream's raw bytes are kept in the
// interchange form: text filters keep them as a string, the rest as hex.
func StreamEncoding(dict Dict) Encoding {
	chain, err := FilterChain(dict, nil)
	if err != nil || len(chain) == 0 {
		return EncodingHex
	}
	return FilterEncoding(chain[0].Name)
}

// FilterEncoding is the persisted encoding for data whose outermost filter
// is name.
func FilterEncoding(name string) Encoding {
	if filters.IsText(name) {
		return EncodingString
	}
	return EncodingHex
}

// CanonicalFilter expands an abbreviated filter name.
func CanonicalFilter(name string) string {
	return filters.Canonical(name)
}

func toParams(d Dict) filters.Params {
	if len(d) == 0 {
		return nil
	}
	p := make(filters.Params, len(d))
	for k, v := range d {
		switch val := v.(type) {
		case Number:
			p[k] = float64(val)
		case Bool:
			p[k] = bool(val)
		case Name:
			p[k] = string(val)
		}
	}
	return p
}
