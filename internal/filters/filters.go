package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/filter"
)

// ErrUnknown is returned for a filter name with no implementation.
var ErrUnknown = errors.New("unknown filter")

// Params represents decode parameters from PDF stream dictionaries.
// Numbers arrive as float64 or int, booleans as bool, names as string.
type Params map[string]interface{}

var abbreviations = map[string]string{
	"Fl":  "FlateDecode",
	"LZW": "LZWDecode",
	"A85": "ASCII85Decode",
	"AHx": "ASCIIHexDecode",
	"RL":  "RunLengthDecode",
	"CCF": "CCITTFaxDecode",
	"DCT": "DCTDecode",
}

// Canonical expands an abbreviated filter name.
func Canonical(name string) string {
	if full, ok := abbreviations[name]; ok {
		return full
	}
	return name
}

// IsText reports whether the filter produces printable ASCII, so encoded
// data can be kept as a string rather than hex.
func IsText(name string) bool {
	switch Canonical(name) {
	case "ASCIIHexDecode", "ASCII85Decode":
		return true
	}
	return false
}

// Decode applies one filter.
func Decode(name string, data []byte, params Params) ([]byte, error) {
	switch Canonical(name) {
	case "FlateDecode":
		return FlateDecode(data, params)
	case "LZWDecode":
		return LZWDecode(data, params)
	case "ASCII85Decode":
		return ASCII85Decode(data)
	case "ASCIIHexDecode":
		return ASCIIHexDecode(data)
	case "RunLengthDecode":
		return RunLengthDecode(data)
	case "CCITTFaxDecode":
		return CCITTFaxDecode(data, params)
	case "DCTDecode", "JPXDecode", "JBIG2Decode":
		return data, nil
	case "Crypt":
		if name, ok := params["Name"].(string); ok && name != "Identity" {
			return nil, fmt.Errorf("%w: Crypt filter %s", ErrUnknown, name)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
}

// Encode applies the inverse of one filter.
func Encode(name string, data []byte, params Params) ([]byte, error) {
	switch canonical := Canonical(name); canonical {
	case "FlateDecode", "LZWDecode", "ASCII85Decode", "ASCIIHexDecode", "RunLengthDecode":
		return encodeWith(canonical, data, params)
	}
	return nil, fmt.Errorf("%w: no encoder for %s", ErrUnknown, name)
}

// encodeWith runs a pdfcpu encoder.
func encodeWith(name string, data []byte, params Params) ([]byte, error) {
	f, err := pdfcpu.NewFilter(name, intParams(params))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	r, err := f.Encode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", name, err)
	}
	return io.ReadAll(r)
}

// decodeWith runs a pdfcpu decoder.
func decodeWith(name string, data []byte, params Params) ([]byte, error) {
	f, err := pdfcpu.NewFilter(name, intParams(params))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	r, err := f.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", name, err)
	}
	return io.ReadAll(r)
}

func intParams(params Params) map[string]int {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]int, len(params))
	for k := range params {
		switch params[k].(type) {
		case int, int64, int32, float64:
			out[k] = getIntParam(params, k, 0)
		case bool:
			if getBoolParam(params, k, false) {
				out[k] = 1
			} else {
				out[k] = 0
			}
		}
	}
	return out
}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

// getBoolParam extracts a boolean parameter from Params
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}
