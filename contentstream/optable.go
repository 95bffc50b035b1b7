package contentstream

// OpInfo describes a content stream operator.
type OpInfo struct {
	Description  string
	NumArgs      int
	VariableArgs bool
	// Group is +1 for operators that open a nested group, -1 for those
	// that close one and 0 otherwise.
	Group int
}

// Ops is the operator table. Operators missing from it are still parsed;
// they take every pending operand and get no description.
var Ops = map[string]OpInfo{
	// Graphics state
	"w":  {Description: "setLineWidth", NumArgs: 1},
	"J":  {Description: "setLineCap", NumArgs: 1},
	"j":  {Description: "setLineJoin", NumArgs: 1},
	"M":  {Description: "setMiterLimit", NumArgs: 1},
	"d":  {Description: "setDash", NumArgs: 2},
	"ri": {Description: "setRenderingIntent", NumArgs: 1},
	"i":  {Description: "setFlatness", NumArgs: 1},
	"gs": {Description: "setGState", NumArgs: 1},
	"q":  {Description: "save", Group: 1},
	"Q":  {Description: "restore", Group: -1},
	"cm": {Description: "transform", NumArgs: 6},

	// Path construction and painting
	"m":  {Description: "moveTo", NumArgs: 2},
	"l":  {Description: "lineTo", NumArgs: 2},
	"c":  {Description: "curveTo", NumArgs: 6},
	"v":  {Description: "curveTo2", NumArgs: 4},
	"y":  {Description: "curveTo3", NumArgs: 4},
	"h":  {Description: "closePath"},
	"re": {Description: "rectangle", NumArgs: 4},
	"S":  {Description: "stroke"},
	"s":  {Description: "closeStroke"},
	"f":  {Description: "fill"},
	"F":  {Description: "fill"},
	"f*": {Description: "eoFill"},
	"B":  {Description: "fillStroke"},
	"B*": {Description: "eoFillStroke"},
	"b":  {Description: "closeFillStroke"},
	"b*": {Description: "closeEOFillStroke"},
	"n":  {Description: "endPath"},

	// Clipping
	"W":  {Description: "clip"},
	"W*": {Description: "eoClip"},

	// Text
	"BT": {Description: "beginText", Group: 1},
	"ET": {Description: "endText", Group: -1},
	"Tc": {Description: "setCharSpacing", NumArgs: 1},
	"Tw": {Description: "setWordSpacing", NumArgs: 1},
	"Tz": {Description: "setHScale", NumArgs: 1},
	"TL": {Description: "setLeading", NumArgs: 1},
	"Tf": {Description: "setFont", NumArgs: 2},
	"Tr": {Description: "setTextRenderingMode", NumArgs: 1},
	"Ts": {Description: "setTextRise", NumArgs: 1},
	"Td": {Description: "moveText", NumArgs: 2},
	"TD": {Description: "setLeadingMoveText", NumArgs: 2},
	"Tm": {Description: "setTextMatrix", NumArgs: 6},
	"T*": {Description: "nextLine"},
	"Tj": {Description: "showText", NumArgs: 1},
	"TJ": {Description: "showSpacedText", NumArgs: 1},
	"'":  {Description: "nextLineShowText", NumArgs: 1},
	"\"": {Description: "nextLineSetSpacingShowText", NumArgs: 3},

	// Type 3 fonts
	"d0": {Description: "setCharWidth", NumArgs: 2},
	"d1": {Description: "setCharWidthAndBounds", NumArgs: 6},

	// Color
	"CS":  {Description: "setStrokeColorSpace", NumArgs: 1},
	"cs":  {Description: "setFillColorSpace", NumArgs: 1},
	"SC":  {Description: "setStrokeColor", NumArgs: 4, VariableArgs: true},
	"SCN": {Description: "setStrokeColorN", NumArgs: 33, VariableArgs: true},
	"sc":  {Description: "setFillColor", NumArgs: 4, VariableArgs: true},
	"scn": {Description: "setFillColorN", NumArgs: 33, VariableArgs: true},
	"G":   {Description: "setStrokeGray", NumArgs: 1},
	"g":   {Description: "setFillGray", NumArgs: 1},
	"RG":  {Description: "setStrokeRGBColor", NumArgs: 3},
	"rg":  {Description: "setFillRGBColor", NumArgs: 3},
	"K":   {Description: "setStrokeCMYKColor", NumArgs: 4},
	"k":   {Description: "setFillCMYKColor", NumArgs: 4},

	// Shading
	"sh": {Description: "shadingFill", NumArgs: 1},

	// Inline images
	"BI": {Description: "beginInlineImage", Group: 1},
	"ID": {Description: "beginImageData", VariableArgs: true},
	"EI": {Description: "endInlineImage", NumArgs: 1, Group: -1},

	// XObjects and marked content
	"Do":  {Description: "paintXObject", NumArgs: 1},
	"MP":  {Description: "markPoint", NumArgs: 1},
	"DP":  {Description: "markPointProps", NumArgs: 2},
	"BMC": {Description: "beginMarkedContent", NumArgs: 1, Group: 1},
	"BDC": {Description: "beginMarkedContentProps", NumArgs: 2, Group: 1},
	"EMC": {Description: "endMarkedContent", Group: -1},

	// Compatibility
	"BX": {Description: "beginCompat", Group: 1},
	"EX": {Description: "endCompat", Group: -1},
}

// argsToConsume is how many trailing operands an operator takes when
// pending operands are available.
func argsToConsume(info OpInfo, known bool, pending int) int {
	if !known || info.VariableArgs {
		return pending
	}
	if info.NumArgs > pending {
		return pending
	}
	return info.NumArgs
}
