package vdom

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vango-dev/keyedlist/internal/errors"
	"github.com/vango-dev/keyedlist/pkg/dom"
)

// Materialize turns a template value into a flat, ordered node sequence.
// The returned nodes are detached.
func Materialize(v any) ([]*dom.Node, error) {
	var out []*dom.Node
	if err := materialize(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func materialize(v any, out *[]*dom.Node) error {
	switch val := v.(type) {
	case nil, bool:
		return nil

	case *dom.Node:
		if val == nil {
			return nil
		}
		if val.Type == dom.FragmentNode {
			for _, c := range val.ChildNodes() {
				c.Remove()
				*out = append(*out, c)
			}
			return nil
		}
		*out = append(*out, val)

	case []*dom.Node:
		for _, n := range val {
			if err := materialize(n, out); err != nil {
				return err
			}
		}

	case *VNode:
		if val == nil {
			return nil
		}
		return build(val, out)

	case []*VNode:
		for _, n := range val {
			if err := materialize(n, out); err != nil {
				return err
			}
		}

	case []any:
		for _, n := range val {
			if err := materialize(n, out); err != nil {
				return err
			}
		}

	case Component:
		return materialize(val.Render(), out)

	case string:
		*out = append(*out, dom.NewText(val))

	case fmt.Stringer:
		*out = append(*out, dom.NewText(val.String()))

	case int:
		*out = append(*out, dom.NewText(strconv.Itoa(val)))
	case int64:
		*out = append(*out, dom.NewText(strconv.FormatInt(val, 10)))
	case int32:
		*out = append(*out, dom.NewText(strconv.FormatInt(int64(val), 10)))
	case uint:
		*out = append(*out, dom.NewText(strconv.FormatUint(uint64(val), 10)))
	case uint64:
		*out = append(*out, dom.NewText(strconv.FormatUint(val, 10)))
	case float64:
		*out = append(*out, dom.NewText(strconv.FormatFloat(val, 'f', -1, 64)))
	case float32:
		*out = append(*out, dom.NewText(strconv.FormatFloat(float64(val), 'f', -1, 32)))

	default:
		return errors.New("E001").WithDetailf("render returned %T", v)
	}
	return nil
}

// build converts a VNode subtree into live nodes.
func build(v *VNode, out *[]*dom.Node) error {
	switch v.Kind {
	case KindText:
		*out = append(*out, dom.NewText(v.Text))

	case KindComment:
		*out = append(*out, dom.NewComment(v.Text))

	case KindFragment:
		for _, c := range v.Children {
			if err := materialize(c, out); err != nil {
				return err
			}
		}

	case KindComponent:
		if v.Comp == nil {
			return nil
		}
		return materialize(v.Comp.Render(), out)

	case KindElement:
		el := dom.NewElement(v.Tag, attrs(v.Props)...)
		var children []*dom.Node
		for _, c := range v.Children {
			if err := materialize(c, &children); err != nil {
				return err
			}
		}
		el.Append(children...)
		*out = append(*out, el)

	default:
		return errors.New("E001").WithDetailf("unknown node kind %d", v.Kind)
	}
	return nil
}

// attrs converts props into a deterministic attribute list. false and nil
// values are omitted; true renders as an empty boolean attribute.
func attrs(props Props) []dom.Attr {
	if len(props) == 0 {
		return nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]dom.Attr, 0, len(keys))
	for _, k := range keys {
		switch val := props[k].(type) {
		case nil:
			continue
		case bool:
			if val {
				out = append(out, dom.Attr{Name: k})
			}
		default:
			out = append(out, dom.Attr{Name: k, Value: propToString(val)})
		}
	}
	return out
}

// propToString converts a prop value to its attribute string.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
