package treedist

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// NodeFromJSON builds a labeled tree from a JSON document:
//
//   - objects become "object" nodes with one key-labeled child per member,
//     in lexical key order (JSON objects carry no order of their own, so a
//     deterministic one is imposed);
//   - arrays become "array" nodes with children in element order;
//   - scalars become leaves labeled with their literal value.
func NodeFromJSON(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("treedist: decoding json: %w", err)
	}
	return nodeFromValue(doc), nil
}

// nodeFromValue recurses over the decoded document. Depth here is bounded
// by the depth encoding/json already accepted while decoding.
func nodeFromValue(v any) *Node {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		children := make([]*Node, len(keys))
		for i, k := range keys {
			children[i] = NewNode(k, nodeFromValue(val[k]))
		}
		return NewNode("object", children...)
	case []any:
		children := make([]*Node, len(val))
		for i, elem := range val {
			children[i] = nodeFromValue(elem)
		}
		return NewNode("array", children...)
	case json.Number:
		return NewNode(val.String())
	case string:
		return NewNode(val)
	case bool:
		if val {
			return NewNode("true")
		}
		return NewNode("false")
	default:
		return NewNode("null")
	}
}
