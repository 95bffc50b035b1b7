package core

import "testing"

func TestTextStrings(t *testing.T) {
	tests := []struct {
		raw  String
		text string
	}{
		{String("Plain title"), "Plain title"},
		{String("Caf\xe9"), "Café"},
		{String("\xfe\xff\x00H\x00i\x04\x14"), "HiД"},
	}
	for _, tt := range tests {
		if got := DecodeTextString(tt.raw); got != tt.text {
			t.Errorf("DecodeTextString(%q) = %q, want %q", tt.raw, got, tt.text)
		}
	}

	for _, text := range []string{"ascii", "Café", "日本語 title"} {
		if got := DecodeTextString(EncodeTextString(text)); got != text {
			t.Errorf("round trip of %q gave %q", text, got)
		}
	}
	if enc := EncodeTextString("Café"); enc != String("Caf\xe9") {
		t.Errorf("Latin-1 text should stay single byte, got %q", enc)
	}
}
