package core

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"
)

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestFilterChain(t *testing.T) {
	tests := []struct {
		name string
		dict Dict
		want []FilterSpec
	}{
		{"none", Dict{}, nil},
		{"single", Dict{"Filter": Name("FlateDecode")}, []FilterSpec{{Name: "FlateDecode"}}},
		{
			"array with params",
			Dict{
				"Filter":      Array{Name("AHx"), Name("FlateDecode")},
				"DecodeParms": Array{Null{}, Dict{"Predictor": Number(12)}},
			},
			[]FilterSpec{{Name: "AHx"}, {Name: "FlateDecode", Params: Dict{"Predictor": Number(12)}}},
		},
		{"inline abbreviations", Dict{"F": Name("A85"), "DP": Dict{"K": Number(-1)}}, []FilterSpec{{Name: "A85", Params: Dict{"K": Number(-1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterChain(tt.dict, nil)
			if err != nil {
				t.Fatalf("FilterChain failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d filters, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Name != tt.want[i].Name || len(got[i].Params) != len(tt.want[i].Params) {
					t.Errorf("filter %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterChainResolvesRefs(t *testing.T) {
	doc := NewDocument("1.7")
	doc.SetObject("f", Array{Name("FlateDecode")})
	chain, err := FilterChain(Dict{"Filter": Ref("f")}, doc.Resolve)
	if err != nil {
		t.Fatalf("FilterChain failed: %v", err)
	}
	if len(chain) != 1 || chain[0].Name != "FlateDecode" {
		t.Errorf("chain = %+v", chain)
	}

	if _, err := FilterChain(Dict{"Filter": Number(1)}, nil); !errors.Is(err, ErrMalformedObject) {
		t.Errorf("expected ErrMalformedObject, got %v", err)
	}
}

func TestDecodeStream(t *testing.T) {
	text := []byte("BT /F1 12 Tf (Hi) Tj ET")
	hexOfFlate := []byte{}
	for _, b := range deflate(text) {
		hexOfFlate = append(hexOfFlate, "0123456789ABCDEF"[b>>4], "0123456789ABCDEF"[b&15])
	}
	hexOfFlate = append(hexOfFlate, '>')

	s := &Stream{
		Dict: Dict{"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")}},
		Data: hexOfFlate,
	}
	got, err := DecodeStream(s, nil)
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	if !bytes.Equal(got, text) {
		t.Errorf("got %q, want %q", got, text)
	}
}

func TestDecodeFiltersErrors(t *testing.T) {
	_, err := DecodeFilters([]FilterSpec{{Name: "MadeUpDecode"}}, []byte("x"))
	var ufe *UnsupportedFilterError
	if !errors.As(err, &ufe) || ufe.Name != "MadeUpDecode" {
		t.Errorf("expected UnsupportedFilterError, got %v", err)
	}

	_, err = DecodeFilters([]FilterSpec{{Name: "FlateDecode"}}, []byte("not zlib"))
	if !errors.Is(err, ErrInvalidStreamData) {
		t.Errorf("expected ErrInvalidStreamData, got %v", err)
	}
}

func TestEncodeFiltersRoundTrip(t *testing.T) {
	chain := []FilterSpec{{Name: "ASCII85Decode"}, {Name: "FlateDecode"}}
	text := []byte("0 0 m 100 100 l S")

	encoded, err := EncodeFilters(chain, text)
	if err != nil {
		t.Fatalf("EncodeFilters failed: %v", err)
	}
	decoded, err := DecodeFilters(chain, encoded)
	if err != nil {
		t.Fatalf("DecodeFilters failed: %v", err)
	}
	if !bytes.Equal(decoded, text) {
		t.Errorf("got %q, want %q", decoded, text)
	}
}

func TestStreamEncoding(t *testing.T) {
	tests := []struct {
		dict Dict
		want Encoding
	}{
		{Dict{}, EncodingHex},
		{Dict{"Filter": Name("FlateDecode")}, EncodingHex},
		{Dict{"Filter": Name("A85")}, EncodingString},
		{Dict{"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")}}, EncodingString},
		{Dict{"Filter": Array{Name("FlateDecode"), Name("ASCIIHexDecode")}}, EncodingHex},
	}
	for _, tt := range tests {
		if got := StreamEncoding(tt.dict); got != tt.want {
			t.Errorf("StreamEncoding(%v) = %v, want %v", tt.dict, got, tt.want)
		}
	}
}
