package treedist

// Node is a single node of an ordered labeled tree: a string label plus an
// ordered list of children. Child order is significant — permuting children
// changes the edit distance. Each node exclusively owns its children; the
// construction API offers no way to introduce sharing or cycles.
type Node struct {
	label    string
	children []*Node
}

// NewNode constructs a tree node from a label and zero or more ordered
// children. The children slice is retained, not copied.
func NewNode(label string, children ...*Node) *Node {
	return &Node{label: label, children: children}
}

// Label returns the node's label.
func (n *Node) Label() string { return n.label }

// Children returns the node's ordered children. The returned slice is the
// node's own backing storage and must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Size returns the number of nodes in the subtree rooted at n, including n.
func (n *Node) Size() int {
	count := 0
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, cur.children...)
	}
	return count
}
