package treedist

import "github.com/jward/treedist/internal/grid"

// Distance returns the tree edit distance between the indexed tree and
// other under unit costs: insertion, deletion, and relabeling each cost 1.
func (ix *Index) Distance(other *Index) int64 {
	return ix.WeightedDistance(other, 1, 1, 1)
}

// WeightedDistance returns the minimum total cost of transforming the
// indexed tree into other by node insertions, deletions, and relabelings,
// under the supplied non-negative per-operation costs. Relabeling a node
// into one with an equal label costs 0.
//
// Costs accumulate additively in int64 across at most len(ix)+len(other)
// operations; callers must keep each cost below MaxInt64/(n+m) to rule out
// overflow. Zero costs are valid and yield degenerate-but-correct results.
//
// This is the Zhang–Shasha dynamic program. One persistent tree-distance
// table td spans both trees; each key-root pair contributes a local
// forest-distance pass. Both key-root iterations must run in ascending
// order: the forest branch of the recurrence reads td entries resolved by
// earlier pairs, so reordering the loops breaks correctness, not just
// performance.
func (ix *Index) WeightedDistance(other *Index, insertCost, deleteCost, relabelCost int64) int64 {
	td := grid.New(ix.Len(), other.Len())
	for _, x := range ix.keyRoots {
		for _, y := range other.keyRoots {
			forestDistance(ix, other, x, y, td, insertCost, deleteCost, relabelCost)
		}
	}
	return td.At(ix.Len()-1, other.Len()-1)
}

// forestDistance runs one dynamic-programming pass over the forest windows
// [lld(x), x] of t1 and [lld(y), y] of t2, recording every genuine
// subtree-to-subtree distance it resolves into td.
func forestDistance(t1, t2 *Index, x, y int, td *grid.Grid, insertCost, deleteCost, relabelCost int64) {
	l1 := t1.lld[x]
	l2 := t2.lld[y]
	rows := x - l1 + 2
	cols := y - l2 + 2

	fd := grid.New(rows, cols)
	for i := 1; i < rows; i++ {
		fd.Set(i, 0, fd.At(i-1, 0)+deleteCost)
	}
	for j := 1; j < cols; j++ {
		fd.Set(0, j, fd.At(0, j-1)+insertCost)
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			// ni, nj are the actual post-order indices the window cells
			// (i, j) denote.
			ni := i + l1 - 1
			nj := j + l2 - 1

			del := fd.At(i-1, j) + deleteCost
			ins := fd.At(i, j-1) + insertCost

			if t1.lld[ni] == l1 && t2.lld[nj] == l2 {
				// Both windows are whole subtrees. The cell value is a
				// genuine tree distance; record it into td for later
				// key-root pairs.
				rel := fd.At(i-1, j-1) + relabel(t1.nodes[ni], t2.nodes[nj], relabelCost)
				d := min(del, ins, rel)
				fd.Set(i, j, d)
				td.Set(ni, nj, d)
			} else {
				// At least one window is a proper forest: splice in the
				// subtree distance resolved by an earlier key-root pair.
				di := t1.lld[ni] - l1
				dj := t2.lld[nj] - l2
				sub := fd.At(di, dj) + td.At(ni, nj)
				fd.Set(i, j, min(del, ins, sub))
			}
		}
	}
}

// relabel returns the cost of substituting a's label with b's: zero when
// the labels compare equal.
func relabel(a, b *Node, relabelCost int64) int64 {
	if a.label == b.label {
		return 0
	}
	return relabelCost
}
