// Package shape controls how syntax-tree node kinds become labels in a
// labeled tree. Rules are built by a Risor script run once per Engine:
// the script calls ignore/rename/label_text host functions and the Go side
// records the resulting ruleset.
package shape

// Rules is an immutable-after-build ruleset applied while lowering a syntax
// tree into a labeled tree. A nil *Rules keeps every kind and labels each
// node with its kind, so callers never need a non-nil default.
type Rules struct {
	ignored   map[string]bool
	renamed   map[string]string
	labelText map[string]bool
}

// NewRules returns an empty ruleset: keep everything, label by kind.
func NewRules() *Rules {
	return &Rules{
		ignored:   make(map[string]bool),
		renamed:   make(map[string]string),
		labelText: make(map[string]bool),
	}
}

// Keep reports whether nodes of the given kind appear in the labeled tree.
// Ignoring a kind drops its entire subtree.
func (r *Rules) Keep(kind string) bool {
	if r == nil {
		return true
	}
	return !r.ignored[kind]
}

// Label returns the label for a node kind and whether the node's source
// text should be used as the label instead.
func (r *Rules) Label(kind string) (label string, useText bool) {
	if r == nil {
		return kind, false
	}
	if r.labelText[kind] {
		return kind, true
	}
	if to, ok := r.renamed[kind]; ok {
		return to, false
	}
	return kind, false
}

// Len returns the number of recorded rules, used to report script effects.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ignored) + len(r.renamed) + len(r.labelText)
}
