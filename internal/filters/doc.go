// Package filters implements the PDF stream filters used by the object graph.
//
// Filters are addressed by their PDF names; abbreviated inline-image names
// (Fl, LZW, A85, AHx, RL, CCF, DCT) are accepted as well:
//
//	decoded, err := filters.Decode("FlateDecode", data, filters.Params{
//	    "Predictor": 12,
//	    "Columns":   4,
//	})
//
// FlateDecode and LZWDecode honour the Predictor parameter (TIFF 2 and the
// PNG predictors 10 to 15). LZWDecode reads EarlyChange, which defaults
// to 1.
//
// Image codecs (DCTDecode, JPXDecode, JBIG2Decode) are passed through
// untouched: their output is pixels, which only a renderer can use.
//
// Encode is the inverse for the filters that have one and is used when
// the writer compresses content streams.
package filters
