package treedist

import (
	"slices"
	"sort"
)

// Index is an immutable preprocessing view over a labeled tree, built once
// per tree and reusable across any number of distance computations. It holds
// the post-order node arena, the left-most-leaf-descendant table, and the
// key-root set required by the distance algorithm.
//
// An Index never mutates after NewIndex returns, so it is safe for
// concurrent use by multiple goroutines. It references the tree it was built
// from; rebuilding is required if a new tree is constructed.
type Index struct {
	// nodes lists every node in post-order: all children left to right,
	// then the parent. The root is always last.
	nodes []*Node

	// lld[i] is the post-order index of the left-most leaf in the subtree
	// rooted at index i. lld[i] <= i always; lld[i] == i for a leaf.
	lld []int

	// keyRoots holds, in ascending order, the indices of the root and of
	// every node that has a preceding sibling.
	keyRoots []int
}

// NewIndex builds an Index from the tree rooted at root. All traversals use
// explicit stacks, so tree depth is limited only by available memory.
func NewIndex(root *Node) *Index {
	nodes, pos := postOrder(root)
	return &Index{
		nodes:    nodes,
		lld:      leftmostLeaves(nodes, pos),
		keyRoots: keyRoots(root, pos),
	}
}

// Len returns the number of nodes in the indexed tree.
func (ix *Index) Len() int { return len(ix.nodes) }

// Label returns the label of the node at the given post-order index.
func (ix *Index) Label(i int) string { return ix.nodes[i].label }

// LeftmostLeaf returns the post-order index of the left-most leaf in the
// subtree rooted at post-order index i.
func (ix *Index) LeftmostLeaf(i int) int { return ix.lld[i] }

// KeyRoots returns the key-root indices in ascending order. The returned
// slice is the Index's own storage and must not be modified.
func (ix *Index) KeyRoots() []int { return ix.keyRoots }

// postOrder numbers every node of the tree by post-order traversal and
// returns both the ordered arena and the node→index map used by the other
// build steps. Node identity is the assigned index, never the pointer value
// beyond this single map.
func postOrder(root *Node) ([]*Node, map[*Node]int) {
	var nodes []*Node
	pos := make(map[*Node]int)

	type frame struct {
		node *Node
		next int // next child to descend into
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.children) {
			child := top.node.children[top.next]
			top.next++
			stack = append(stack, frame{node: child})
			continue
		}
		pos[top.node] = len(nodes)
		nodes = append(nodes, top.node)
		stack = stack[:len(stack)-1]
	}
	return nodes, pos
}

// leftmostLeaves computes the left-most-leaf-descendant table. Children
// precede parents in post-order, so a parent's entry is simply its first
// child's entry, already resolved.
func leftmostLeaves(nodes []*Node, pos map[*Node]int) []int {
	lld := make([]int, len(nodes))
	for i, n := range nodes {
		if len(n.children) == 0 {
			lld[i] = i
			continue
		}
		lld[i] = lld[pos[n.children[0]]]
	}
	return lld
}

// keyRoots collects the root index plus the index of every child that has a
// preceding sibling, sorted ascending. The de-duplication pass guards
// against a traversal visiting a node twice; a well-formed tree never
// triggers it.
func keyRoots(root *Node, pos map[*Node]int) []int {
	roots := []int{pos[root]}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, child := range n.children {
			if i > 0 {
				roots = append(roots, pos[child])
			}
			stack = append(stack, child)
		}
	}
	sort.Ints(roots)
	return slices.Compact(roots)
}
