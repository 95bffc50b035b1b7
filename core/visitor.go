package core

import "strconv"

// StepKind identifies how a Step descends into its container.
type StepKind int

const (
	StepKey        StepKind = iota // dictionary entry
	StepIndex                      // array or content item
	StepStreamDict                 // the dictionary of a stream
	StepArg                        // operator operand
)

// Step is one hop from a container value to one of its children.
type Step struct {
	Kind  StepKind
	Key   string
	Index int
}

func (s Step) String() string {
	switch s.Kind {
	case StepKey:
		return "/" + s.Key
	case StepIndex:
		return "[" + strconv.Itoa(s.Index) + "]"
	case StepStreamDict:
		return ".dict"
	case StepArg:
		return ".args[" + strconv.Itoa(s.Index) + "]"
	}
	return "?"
}

// Path locates a value inside a root value.
type Path []Step

// Clone copies the path. Paths handed to a Visitor are reused by the walk
// and must be cloned before being retained.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

func (p Path) String() string {
	s := ""
	for _, step := range p {
		s += step.String()
	}
	return s
}

// Visitor receives one call per value during Walk. The composite methods
// return whether Walk should descend into the children.
type Visitor interface {
	VisitNull(path Path) error
	VisitBool(b Bool, path Path) error
	VisitNumber(n Number, path Path) error
	VisitString(s String, path Path) error
	VisitName(n Name, path Path) error
	VisitRef(r Ref, path Path) error
	VisitArray(a Array, path Path) (bool, error)
	VisitDict(d Dict, path Path) (bool, error)
	VisitStream(s *Stream, path Path) (bool, error)
	VisitContent(c Content, path Path) (bool, error)
	VisitOperator(op *Operator, path Path) (bool, error)
}

// BaseVisitor ignores leaves and descends into every composite. Embed it
// and override the methods of interest.
type BaseVisitor struct{}

func (BaseVisitor) VisitNull(Path) error                       { return nil }
func (BaseVisitor) VisitBool(Bool, Path) error                 { return nil }
func (BaseVisitor) VisitNumber(Number, Path) error             { return nil }
func (BaseVisitor) VisitString(String, Path) error             { return nil }
func (BaseVisitor) VisitName(Name, Path) error                 { return nil }
func (BaseVisitor) VisitRef(Ref, Path) error                   { return nil }
func (BaseVisitor) VisitArray(Array, Path) (bool, error)       { return true, nil }
func (BaseVisitor) VisitDict(Dict, Path) (bool, error)         { return true, nil }
func (BaseVisitor) VisitStream(*Stream, Path) (bool, error)    { return true, nil }
func (BaseVisitor) VisitContent(Content, Path) (bool, error)   { return true, nil }
func (BaseVisitor) VisitOperator(*Operator, Path) (bool, error) { return true, nil }

// Walk dispatches obj and, where the visitor asks for it, its children.
// Dictionary entries are visited in sorted key order.
func Walk(obj Object, v Visitor) error {
	return walk(obj, make(Path, 0, 8), v)
}

func walk(obj Object, path Path, v Visitor) error {
	switch o := obj.(type) {
	case Null:
		return v.VisitNull(path)
	case Bool:
		return v.VisitBool(o, path)
	case Number:
		return v.VisitNumber(o, path)
	case String:
		return v.VisitString(o, path)
	case Name:
		return v.VisitName(o, path)
	case Ref:
		return v.VisitRef(o, path)
	case Array:
		descend, err := v.VisitArray(o, path)
		if err != nil || !descend {
			return err
		}
		for i, item := range o {
			if err := walk(item, append(path, Step{Kind: StepIndex, Index: i}), v); err != nil {
				return err
			}
		}
		return nil
	case Dict:
		descend, err := v.VisitDict(o, path)
		if err != nil || !descend {
			return err
		}
		for _, key := range o.Keys() {
			if err := walk(o[key], append(path, Step{Kind: StepKey, Key: key}), v); err != nil {
				return err
			}
		}
		return nil
	case *Stream:
		descend, err := v.VisitStream(o, path)
		if err != nil || !descend {
			return err
		}
		return walk(o.Dict, append(path, Step{Kind: StepStreamDict}), v)
	case Content:
		descend, err := v.VisitContent(o, path)
		if err != nil || !descend {
			return err
		}
		for i, item := range o {
			if err := walk(item, append(path, Step{Kind: StepIndex, Index: i}), v); err != nil {
				return err
			}
		}
		return nil
	case *Operator:
		descend, err := v.VisitOperator(o, path)
		if err != nil || !descend {
			return err
		}
		for i, arg := range o.Args {
			if err := walk(arg, append(path, Step{Kind: StepArg, Index: i}), v); err != nil {
				return err
			}
		}
		return nil
	}
	return Malformed("unknown value %T at %s", obj, path)
}

// Lookup returns the value found by following path from root.
func Lookup(root Object, path Path) (Object, error) {
	cur := root
	for _, step := range path {
		next, err := child(cur, step)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Replace stores value at path inside root and returns the new root. An
// empty path replaces root itself; otherwise the change is made in place.
func Replace(root Object, path Path, value Object) (Object, error) {
	if len(path) == 0 {
		return value, nil
	}
	parent, err := Lookup(root, path[:len(path)-1])
	if err != nil {
		return nil, err
	}
	last := path[len(path)-1]
	switch p := parent.(type) {
	case Dict:
		if last.Kind == StepKey {
			p[last.Key] = value
			return root, nil
		}
	case Array:
		if last.Kind == StepIndex && last.Index >= 0 && last.Index < len(p) {
			p[last.Index] = value
			return root, nil
		}
	case Content:
		if last.Kind == StepIndex && last.Index >= 0 && last.Index < len(p) {
			p[last.Index] = value
			return root, nil
		}
	case *Operator:
		if last.Kind == StepArg && last.Index >= 0 && last.Index < len(p.Args) {
			p.Args[last.Index] = value
			return root, nil
		}
	case *Stream:
		if last.Kind == StepStreamDict {
			d, ok := value.(Dict)
			if !ok {
				return nil, Malformed("stream dictionary replaced by %T", value)
			}
			p.Dict = d
			return root, nil
		}
	}
	return nil, Malformed("path %s does not address a slot", path)
}

func child(obj Object, step Step) (Object, error) {
	switch o := obj.(type) {
	case Dict:
		if step.Kind == StepKey {
			if v, ok := o[step.Key]; ok {
				return v, nil
			}
		}
	case Array:
		if step.Kind == StepIndex && step.Index >= 0 && step.Index < len(o) {
			return o[step.Index], nil
		}
	case Content:
		if step.Kind == StepIndex && step.Index >= 0 && step.Index < len(o) {
			return o[step.Index], nil
		}
	case *Operator:
		if step.Kind == StepArg && step.Index >= 0 && step.Index < len(o.Args) {
			return o.Args[step.Index], nil
		}
	case *Stream:
		if step.Kind == StepStreamDict {
			return o.Dict, nil
		}
	}
	return nil, Malformed("cannot follow %s into %T", step, obj)
}

// Refs returns the id of every reference reachable inside obj without
// following references, in walk order.
func Refs(obj Object) ([]string, error) {
	c := &refCollector{}
	if err := Walk(obj, c); err != nil {
		return nil, err
	}
	return c.ids, nil
}

type refCollector struct {
	BaseVisitor
	ids []string
}

func (c *refCollector) VisitRef(r Ref, _ Path) error {
	c.ids = append(c.ids, string(r))
	return nil
}
