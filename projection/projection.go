package projection

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/pdfgraph/core"
)

// Marshal returns the JSON projection of doc:
//
//	{"version": "1.7", "objects": {"obj1": ..., ...}, "trailer": {"dictionary": ...}}
//
// Objects appear in the document's enumeration order.
func Marshal(doc *core.Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"version":`)
	if err := writeJSON(&buf, doc.Version); err != nil {
		return nil, err
	}

	buf.WriteString(`,"objects":{`)
	for i, id := range doc.IDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, id); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		obj, _ := doc.Object(id)
		value, err := toJSON(obj)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}
		if err := writeJSON(&buf, value); err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}
	}

	buf.WriteString(`},"trailer":`)
	trailer := doc.Trailer
	if trailer == nil {
		trailer = core.Dict{}
	}
	value, err := toJSON(trailer)
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	if err := writeJSON(&buf, value); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue returns the projection of a single value
func MarshalValue(obj core.Object) ([]byte, error) {
	value, err := toJSON(obj)
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func toJSON(obj core.Object) (interface{}, error) {
	switch v := obj.(type) {
	case core.Null:
		return nil, nil
	case core.Bool:
		return bool(v), nil
	case core.Number:
		return float64(v), nil
	case core.String:
		return latin1(string(v)), nil
	case core.Name:
		return map[string]interface{}{"name": latin1(string(v))}, nil
	case core.Ref:
		return map[string]interface{}{"ref": string(v)}, nil
	case core.Array:
		items, err := listJSON(v)
		if err != nil {
			return nil, err
		}
		return items, nil
	case core.Dict:
		return dictJSON(v)
	case *core.Stream:
		dict, err := dictJSON(v.Dict)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"stream":   dict,
			"encoding": v.Encoding.String(),
			"data":     encodeData(v.Data, v.Encoding),
		}, nil
	case core.Content:
		items, err := listJSON(v)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"content": items}, nil
	case *core.Operator:
		out := map[string]interface{}{"cmd": v.Cmd}
		if v.Description != "" {
			out["description"] = v.Description
		}
		if len(v.Args) > 0 {
			args, err := listJSON(v.Args)
			if err != nil {
				return nil, err
			}
			out["args"] = args
		}
		if v.Data != nil {
			out["data"] = encodeData(v.Data, v.Encoding)
			out["encoding"] = v.Encoding.String()
		}
		return out, nil
	}
	return nil, core.Malformed("cannot project %T", obj)
}

func listJSON(items []core.Object) ([]interface{}, error) {
	out := make([]interface{}, len(items))
	for i, item := range items {
		v, err := toJSON(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func dictJSON(d core.Dict) (map[string]interface{}, error) {
	entries := make(map[string]interface{}, len(d))
	for k, item := range d {
		v, err := toJSON(item)
		if err != nil {
			return nil, err
		}
		entries[latin1(k)] = v
	}
	return map[string]interface{}{"dictionary": entries}, nil
}

func encodeData(data []byte, enc core.Encoding) string {
	if enc == core.EncodingString {
		return latin1(string(data))
	}
	return hex.EncodeToString(data)
}

// latin1 maps every byte to the rune with the same value so arbitrary
// bytes survive a trip through JSON text.
func latin1(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		sb.WriteRune(rune(s[i]))
	}
	return sb.String()
}

func fromLatin1(s string) (string, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return "", core.Malformed("character %U is outside the byte range", r)
		}
		out = append(out, byte(r))
	}
	return string(out), nil
}

// Unmarshal builds a document from its projection. The order of the
// "objects" members becomes the enumeration order.
func Unmarshal(data []byte) (*core.Document, error) {
	var raw struct {
		Version string          `json:"version"`
		Objects json.RawMessage `json:"objects"`
		Trailer json.RawMessage `json:"trailer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.Malformed("invalid projection: %v", err)
	}

	doc := core.NewDocument(raw.Version)
	if len(raw.Objects) > 0 && string(raw.Objects) != "null" {
		ids, err := memberOrder(raw.Objects)
		if err != nil {
			return nil, err
		}
		var members map[string]json.RawMessage
		if err := json.Unmarshal(raw.Objects, &members); err != nil {
			return nil, core.Malformed("invalid objects: %v", err)
		}
		for _, id := range ids {
			obj, err := fromJSON(members[id])
			if err != nil {
				return nil, fmt.Errorf("object %s: %w", id, err)
			}
			doc.SetObject(id, obj)
		}
	}

	if len(raw.Trailer) > 0 && string(raw.Trailer) != "null" {
		obj, err := fromJSON(raw.Trailer)
		if err != nil {
			return nil, fmt.Errorf("trailer: %w", err)
		}
		trailer, ok := obj.(core.Dict)
		if !ok {
			return nil, core.Malformed("trailer is %T, not a dictionary", obj)
		}
		doc.Trailer = trailer
	}
	return doc, nil
}

// UnmarshalValue decodes the projection of a single value
func UnmarshalValue(data []byte) (core.Object, error) {
	return fromJSON(data)
}

// memberOrder returns the member names of a JSON object in document order
func memberOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, core.Malformed("invalid objects: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, core.Malformed("objects must be a JSON object")
	}
	var ids []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, core.Malformed("invalid objects: %v", err)
		}
		id, _ := tok.(string)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, core.Malformed("invalid object %s: %v", id, err)
		}
	}
	return ids, nil
}

func fromJSON(raw json.RawMessage) (core.Object, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, core.Malformed("empty value")
	}
	switch raw[0] {
	case 'n':
		return core.Null{}, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, core.Malformed("invalid boolean: %v", err)
		}
		return core.Bool(b), nil
	case '"':
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return core.String(s), nil
	case '[':
		items, err := decodeList(raw)
		if err != nil {
			return nil, err
		}
		return core.Array(items), nil
	case '{':
		return fromTagged(raw)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, core.Malformed("invalid value %s", truncate(raw))
	}
	return core.Number(n), nil
}

func fromTagged(raw json.RawMessage) (core.Object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, core.Malformed("invalid object: %v", err)
	}

	if cmd, ok := fields["cmd"]; ok {
		return decodeOperator(cmd, fields)
	}
	if dict, ok := fields["stream"]; ok {
		return decodeStream(dict, fields)
	}
	if content, ok := fields["content"]; ok {
		items, err := decodeList(content)
		if err != nil {
			return nil, err
		}
		return core.Content(items), nil
	}
	if entries, ok := fields["dictionary"]; ok {
		return decodeDict(entries)
	}
	if name, ok := fields["name"]; ok {
		s, err := decodeString(name)
		if err != nil {
			return nil, err
		}
		return core.Name(s), nil
	}
	if ref, ok := fields["ref"]; ok {
		var id string
		if err := json.Unmarshal(ref, &id); err != nil {
			return nil, core.Malformed("invalid ref: %v", err)
		}
		return core.Ref(id), nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, core.Malformed("unknown value with keys %v", keys)
}

func decodeDict(raw json.RawMessage) (core.Dict, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, core.Malformed("invalid dictionary: %v", err)
	}
	dict := make(core.Dict, len(entries))
	for k, v := range entries {
		key, err := fromLatin1(k)
		if err != nil {
			return nil, err
		}
		obj, err := fromJSON(v)
		if err != nil {
			return nil, fmt.Errorf("/%s: %w", k, err)
		}
		dict[key] = obj
	}
	return dict, nil
}

func decodeStream(dictRaw json.RawMessage, fields map[string]json.RawMessage) (core.Object, error) {
	obj, err := fromJSON(dictRaw)
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil, core.Malformed("stream dictionary is %T", obj)
	}
	enc, data, err := decodeData(fields)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return &core.Stream{Dict: dict, Encoding: enc, Data: data}, nil
}

func decodeOperator(cmdRaw json.RawMessage, fields map[string]json.RawMessage) (core.Object, error) {
	op := &core.Operator{}
	if err := json.Unmarshal(cmdRaw, &op.Cmd); err != nil {
		return nil, core.Malformed("invalid cmd: %v", err)
	}
	if desc, ok := fields["description"]; ok {
		if err := json.Unmarshal(desc, &op.Description); err != nil {
			return nil, core.Malformed("invalid description: %v", err)
		}
	}
	if args, ok := fields["args"]; ok {
		items, err := decodeList(args)
		if err != nil {
			return nil, fmt.Errorf("%s operands: %w", op.Cmd, err)
		}
		op.Args = items
	}
	enc, data, err := decodeData(fields)
	if err != nil {
		return nil, err
	}
	op.Encoding = enc
	op.Data = data
	return op, nil
}

// decodeData reads the encoding and data members. Data is nil when the
// member is absent.
func decodeData(fields map[string]json.RawMessage) (core.Encoding, []byte, error) {
	enc := core.EncodingHex
	if raw, ok := fields["encoding"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return enc, nil, core.Malformed("invalid encoding: %v", err)
		}
		var err error
		if enc, err = core.ParseEncoding(name); err != nil {
			return enc, nil, core.Malformed("%v", err)
		}
	}

	raw, ok := fields["data"]
	if !ok {
		return enc, nil, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return enc, nil, core.Malformed("invalid data: %v", err)
	}
	if enc == core.EncodingString {
		s, err := fromLatin1(text)
		if err != nil {
			return enc, nil, err
		}
		return enc, []byte(s), nil
	}
	data, err := hex.DecodeString(text)
	if err != nil {
		return enc, nil, core.Malformed("invalid hex data: %v", err)
	}
	return enc, data, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", core.Malformed("invalid string: %v", err)
	}
	return fromLatin1(s)
}

func decodeList(raw json.RawMessage) ([]core.Object, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, core.Malformed("invalid array: %v", err)
	}
	out := make([]core.Object, len(items))
	for i, item := range items {
		obj, err := fromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = obj
	}
	return out, nil
}

func truncate(raw []byte) string {
	if len(raw) > 32 {
		return string(raw[:32]) + "..."
	}
	return string(raw)
}
