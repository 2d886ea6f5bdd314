package treedist

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treedist/internal/shape"
)

// NodeFromSyntax lowers a tree-sitter syntax tree into a labeled tree.
// Only named nodes are considered; anonymous tokens (punctuation, keywords)
// never appear. rules may be nil, in which case every named node is kept
// and labeled with its kind. Ignoring a kind via rules drops that node's
// whole subtree.
//
// Returns nil when the rules remove every node, including the root.
//
// The walk uses an explicit stack: syntax-tree depth is input-controlled
// and deep sources must not exhaust the native call stack.
func NodeFromSyntax(root *sitter.Node, src []byte, rules *shape.Rules) *Node {
	if root == nil || !rules.Keep(root.Type()) {
		return nil
	}

	type frame struct {
		syntax   *sitter.Node
		label    string
		next     int
		children []*Node
	}

	stack := []frame{{syntax: root, label: labelFor(root, src, rules)}}
	for {
		top := &stack[len(stack)-1]
		if top.next < int(top.syntax.NamedChildCount()) {
			child := top.syntax.NamedChild(top.next)
			top.next++
			if !rules.Keep(child.Type()) {
				continue
			}
			stack = append(stack, frame{syntax: child, label: labelFor(child, src, rules)})
			continue
		}

		node := NewNode(top.label, top.children...)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return node
		}
		parent := &stack[len(stack)-1]
		parent.children = append(parent.children, node)
	}
}

// labelFor resolves a syntax node's label under the shaping rules: the node
// kind, a renamed kind, or the node's source text.
func labelFor(n *sitter.Node, src []byte, rules *shape.Rules) string {
	label, useText := rules.Label(n.Type())
	if useText {
		return n.Content(src)
	}
	return label
}
