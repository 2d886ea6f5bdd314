// Package treedist computes the minimum-cost edit distance between ordered
// labeled trees: the cheapest sequence of node insertions, deletions, and
// relabelings transforming one tree into the other (the Zhang–Shasha
// algorithm). It compares structured data — syntax trees, JSON documents,
// hierarchical records — for structural similarity.
//
// # Core types
//
// A tree is built from [Node] values: a string label plus ordered children.
// [NewIndex] preprocesses a tree once into an immutable [Index] holding the
// post-order numbering, left-most-leaf-descendant table, and key-root set
// the algorithm needs. Indexes are reusable across comparisons and safe for
// concurrent reads.
//
//	a := treedist.NewIndex(treedist.NewNode("A", treedist.NewNode("B")))
//	b := treedist.NewIndex(treedist.NewNode("A", treedist.NewNode("C")))
//	d := a.Distance(b) // 1
//
// [Index.WeightedDistance] takes caller-supplied insertion, deletion, and
// relabeling costs; [Index.Distance] is the unit-cost form.
//
// # Producers
//
// Two producers turn external data into labeled trees: [NodeFromSyntax]
// lowers a tree-sitter syntax tree (node kinds as labels, optionally shaped
// by a Risor script), and [NodeFromJSON] builds a tree from a JSON document.
//
// # Engine
//
// The [Engine] wires producers and the distance algorithm together for
// whole files, caching results in SQLite keyed by content hash and costs:
//
//	e, err := treedist.New("cache.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	d, err := e.CompareFiles(ctx, "old/main.go", "new/main.go")
//	paths, m, err := e.MatrixDirectory(ctx, "src/")
//
// [Engine.Matrix] computes pairwise distances on a worker pool; distinct
// comparisons share no state, so they parallelize freely.
package treedist
