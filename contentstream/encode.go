package contentstream

import "github.com/tsawler/pdfgraph/core"

// Encode writes a content tree back to content stream syntax: each item on
// its own line, operands before their operator and inline image data
// before EI. Parse of the result gives back an equal tree.
func Encode(content core.Content) ([]byte, error) {
	return core.Format(content)
}

// Flatten lists every operand and operator of a content tree in stream
// order, with the group structure removed.
func Flatten(content core.Content) []core.Object {
	var out []core.Object
	flatten(content, &out)
	return out
}

func flatten(content core.Content, out *[]core.Object) {
	for _, item := range content {
		switch v := item.(type) {
		case core.Content:
			flatten(v, out)
		case *core.Operator:
			*out = append(*out, v.Args...)
			*out = append(*out, v)
		default:
			*out = append(*out, v)
		}
	}
}

// Balanced reports whether every group in the tree is closed by the
// operator that matches its opener.
func Balanced(content core.Content) bool {
	for _, item := range content {
		group, ok := item.(core.Content)
		if !ok {
			continue
		}
		if !groupClosed(group) || !Balanced(group) {
			return false
		}
	}
	return true
}

var closers = map[string]string{
	"q":   "Q",
	"BT":  "ET",
	"BI":  "EI",
	"BMC": "EMC",
	"BDC": "EMC",
	"BX":  "EX",
}

func groupClosed(group core.Content) bool {
	if len(group) < 2 {
		return false
	}
	first, ok := group[0].(*core.Operator)
	if !ok {
		return false
	}
	last, ok := group[len(group)-1].(*core.Operator)
	if !ok {
		return false
	}
	return closers[first.Cmd] == last.Cmd
}
