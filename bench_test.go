package treedist

import (
	"fmt"
	"testing"
)

// buildBalancedTree returns a tree with the given depth and fanout, labels
// varying by position so relabel costs come into play.
func buildBalancedTree(depth, fanout int, seed string) *Node {
	if depth == 0 {
		return NewNode(seed)
	}
	children := make([]*Node, fanout)
	for i := range children {
		children[i] = buildBalancedTree(depth-1, fanout, fmt.Sprintf("%s.%d", seed, i))
	}
	return NewNode(seed, children...)
}

func BenchmarkNewIndex(b *testing.B) {
	tree := buildBalancedTree(6, 3, "n") // 1093 nodes
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewIndex(tree)
	}
}

func BenchmarkDistance(b *testing.B) {
	t1 := NewIndex(buildBalancedTree(5, 3, "a")) // 364 nodes
	t2 := NewIndex(buildBalancedTree(5, 3, "b"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t1.Distance(t2)
	}
}

func BenchmarkWeightedDistance_DeepChains(b *testing.B) {
	chain := func(n int, seed string) *Node {
		node := NewNode(seed)
		for i := 1; i < n; i++ {
			node = NewNode(fmt.Sprintf("%s%d", seed, i), node)
		}
		return node
	}
	t1 := NewIndex(chain(200, "a"))
	t2 := NewIndex(chain(200, "b"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t1.WeightedDistance(t2, 1, 2, 3)
	}
}
