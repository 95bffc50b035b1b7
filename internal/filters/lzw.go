package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
)

// LZWDecode decompresses LZW data using MSB-first variable-width codes.
// EarlyChange 1 (the default) widens codes one entry early.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	earlyChange := getIntParam(params, "EarlyChange", 1)

	r := lzw.NewReader(bytes.NewReader(data), earlyChange == 1)
	defer r.Close()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzw decompression failed: %w", err)
	}
	out, err := Predict(decompressed, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

// LZWEncode compresses data; earlyChange selects the code-width switch
// point the decoder must be given.
func LZWEncode(data []byte, earlyChange bool) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, earlyChange)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
