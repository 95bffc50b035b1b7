package filters

import "fmt"

// Predict undoes the Predictor named in params. Predictor 1 or an absent
// Predictor returns data unchanged.
func Predict(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor == 1:
		return data, nil
	case predictor == 2:
		return applyTIFFPredictor2(data, params)
	case predictor >= 10 && predictor <= 15:
		return applyPNGPredictor(data, params)
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

// rowGeometry returns bytes per complete pixel (at least 1) and bytes per row.
func rowGeometry(params Params) (bpp, rowLen int, err error) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return 0, 0, fmt.Errorf("unsupported BitsPerComponent %d", bpc)
	}
	if columns < 1 || colors < 1 {
		return 0, 0, fmt.Errorf("invalid predictor geometry: Columns %d Colors %d", columns, colors)
	}
	bpp = (colors*bpc + 7) / 8
	rowLen = (columns*colors*bpc + 7) / 8
	return bpp, rowLen, nil
}

// applyTIFFPredictor2 adds each sample to the one to its left. Only
// 8-bit samples are supported.
func applyTIFFPredictor2(data []byte, params Params) ([]byte, error) {
	if bpc := getIntParam(params, "BitsPerComponent", 8); bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor only supports 8 bits per component, got %d", bpc)
	}
	bpp, rowLen, err := rowGeometry(params)
	if err != nil {
		return nil, err
	}

	out := append([]byte(nil), data...)
	for start := 0; start < len(out); start += rowLen {
		end := start + rowLen
		if end > len(out) {
			end = len(out)
		}
		for i := start + bpp; i < end; i++ {
			out[i] += out[i-bpp]
		}
	}
	return out, nil
}

// applyPNGPredictor decodes rows that each start with a PNG filter type
// byte. A short final row is decoded as far as it goes.
func applyPNGPredictor(data []byte, params Params) ([]byte, error) {
	bpp, rowLen, err := rowGeometry(params)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data))
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)

	for start := 0; start < len(data); start += rowLen + 1 {
		end := start + rowLen + 1
		if end > len(data) {
			end = len(data)
		}
		filterType := data[start]
		raw := data[start+1 : end]
		row := cur[:len(raw)]

		for i, b := range raw {
			var left, up, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]

			switch filterType {
			case 0:
				row[i] = b
			case 1:
				row[i] = b + left
			case 2:
				row[i] = b + up
			case 3:
				row[i] = b + byte((int(left)+int(up))/2)
			case 4:
				row[i] = b + paethPredictor(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG predictor: %d", filterType)
			}
		}

		out = append(out, row...)
		prev, cur = cur, prev
		copy(prev[len(row):], make([]byte, rowLen-len(row)))
	}
	return out, nil
}

// paethPredictor implements the Paeth predictor algorithm from the PNG specification.
// It selects the neighbor (left, above, or upper-left) closest to a linear prediction.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
