package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"
)

// zlibCompress compresses data for testing
func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"basic", "48656C6C6F>", "Hello"},
		{"whitespace", "48 65 6c\n6C 6F>", "Hello"},
		{"odd digits", "48656C6C6>", "Hell`"},
		{"no EOD", "48656C6C6F", "Hello"},
		{"empty", ">", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCIIHexDecode([]byte(tt.input))
			if err != nil {
				t.Fatalf("ASCIIHexDecode failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ASCIIHexDecode([]byte("4G>")); err == nil {
		t.Error("expected error for invalid hex digit")
	}
}

func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"groups", "87cURD_*#4DfTZ)~>", []byte("Hello, World")},
		{"z shorthand", "z@:B~>", []byte{0, 0, 0, 0, 'a', 'b'}},
		{"prefix and whitespace", "<~87cUR\nD_*#4\tDfTZ)~>", []byte("Hello, World")},
		{"no EOD", "87cURD_*#4DfTZ)", []byte("Hello, World")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCII85Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("ASCII85Decode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ASCII85Decode([]byte("87c{~>")); err == nil {
		t.Error("expected error for invalid character")
	}
}

func TestFlateDecode(t *testing.T) {
	original := []byte("Hello, World! This is test data for FlateDecode.")

	decoded, err := FlateDecode(zlibCompress(original), nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("got %q, want %q", decoded, original)
	}

	if _, err := FlateDecode([]byte("not zlib"), nil); err == nil {
		t.Error("expected error for invalid zlib data")
	}
}

func TestFlateDecodeWithPNGPredictor(t *testing.T) {
	raw := []byte{
		2, 1, 1, 1, // Up: 1 1 1
		2, 1, 1, 1, // Up: 2 2 2
		1, 1, 1, 1, // Sub: 1 2 3
	}
	params := Params{"Predictor": 12, "Columns": 3}

	decoded, err := FlateDecode(zlibCompress(raw), params)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	want := []byte{1, 1, 1, 2, 2, 2, 1, 2, 3}
	if !bytes.Equal(decoded, want) {
		t.Errorf("got %v, want %v", decoded, want)
	}
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		params Params
		want   []byte
	}{
		{
			name:   "no predictor",
			data:   []byte{1, 2, 3},
			params: nil,
			want:   []byte{1, 2, 3},
		},
		{
			name:   "tiff",
			data:   []byte{1, 1, 1, 5, 1, 1},
			params: Params{"Predictor": 2, "Columns": 3},
			want:   []byte{1, 2, 3, 5, 6, 7},
		},
		{
			name:   "png average",
			data:   []byte{3, 2, 2, 3, 2, 2},
			params: Params{"Predictor": 13, "Columns": 2},
			want:   []byte{2, 3, 3, 5},
		},
		{
			name:   "png paeth",
			data:   []byte{4, 1, 2, 4, 1, 1},
			params: Params{"Predictor": 15, "Columns": 2},
			want:   []byte{1, 3, 2, 4},
		},
		{
			name:   "float params",
			data:   []byte{1, 1, 1},
			params: Params{"Predictor": float64(10), "Columns": float64(2)},
			want:   []byte{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Predict(tt.data, tt.params)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := Predict([]byte{0}, Params{"Predictor": 7}); err == nil {
		t.Error("expected error for unsupported predictor")
	}
}

func TestPaethPredictor(t *testing.T) {
	tests := []struct {
		a, b, c byte
		want    byte
	}{
		{10, 20, 15, 15},
		{0, 0, 0, 0},
		{100, 50, 75, 75},
		{1, 3, 2, 2},
		{5, 9, 1, 9},
	}
	for _, tt := range tests {
		if got := paethPredictor(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paethPredictor(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestLZWDecodeKnownPair(t *testing.T) {
	// The worked example from the LZWDecode filter description.
	encoded := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}

	got, err := LZWDecode(encoded, Params{"EarlyChange": 0})
	if err != nil {
		t.Fatalf("LZWDecode failed: %v", err)
	}
	if string(got) != "-----A---B" {
		t.Errorf("got %q, want %q", got, "-----A---B")
	}
}

func TestLZWRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("TOBEORNOTTOBEORTOBEORNOT#"), 200)

	for _, early := range []int{0, 1} {
		encoded, err := LZWEncode(original, early == 1)
		if err != nil {
			t.Fatalf("LZWEncode failed: %v", err)
		}
		decoded, err := LZWDecode(encoded, Params{"EarlyChange": early})
		if err != nil {
			t.Fatalf("LZWDecode(EarlyChange=%d) failed: %v", early, err)
		}
		if !bytes.Equal(decoded, original) {
			t.Errorf("EarlyChange=%d: round trip mismatch", early)
		}
	}
}

func TestRunLengthDecode(t *testing.T) {
	// 2 literals "ab", then 'c' repeated 4 times, then EOD
	encoded := []byte{1, 'a', 'b', 253, 'c', 128}

	got, err := RunLengthDecode(encoded)
	if err != nil {
		t.Fatalf("RunLengthDecode failed: %v", err)
	}
	if string(got) != "abcccc" {
		t.Errorf("got %q, want %q", got, "abcccc")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := []byte("BT /F1 12 Tf 72 712 Td (Hello) Tj ET\n")
	for _, name := range []string{"FlateDecode", "ASCIIHexDecode", "ASCII85Decode", "RunLengthDecode", "Fl"} {
		t.Run(name, func(t *testing.T) {
			encoded, err := Encode(name, original, nil)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			decoded, err := Decode(name, encoded, nil)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(decoded, original) {
				t.Errorf("got %q, want %q", decoded, original)
			}
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	_, err := Decode("BogusDecode", []byte("x"), nil)
	if !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
	_, err = Encode("CCITTFaxDecode", []byte("x"), nil)
	if !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown for missing encoder, got %v", err)
	}
}

func TestPassThroughCodecs(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	got, err := Decode("DCT", data, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("DCT data should pass through unchanged")
	}
}

func TestNames(t *testing.T) {
	if Canonical("AHx") != "ASCIIHexDecode" || Canonical("FlateDecode") != "FlateDecode" {
		t.Error("Canonical did not expand names")
	}
	for name, want := range map[string]bool{
		"AHx": true, "ASCII85Decode": true, "A85": true,
		"FlateDecode": false, "RL": false, "LZW": false,
	} {
		if got := IsText(name); got != want {
			t.Errorf("IsText(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestGetParams(t *testing.T) {
	params := Params{"K": -1, "Columns": float64(100), "BlackIs1": true, "Name": "x"}
	if getIntParam(params, "K", 0) != -1 {
		t.Error("K should be -1")
	}
	if getIntParam(params, "Columns", 1728) != 100 {
		t.Error("Columns should be 100")
	}
	if getIntParam(params, "Rows", 7) != 7 {
		t.Error("missing Rows should use default")
	}
	if !getBoolParam(params, "BlackIs1", false) {
		t.Error("BlackIs1 should be true")
	}
	if getIntParam(nil, "K", 3) != 3 {
		t.Error("nil params should use default")
	}
}
