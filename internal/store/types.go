package store

import "time"

// Tree is a catalog record for an indexed labeled tree. Hash identifies the
// source content the tree was built from; two files with identical bytes
// share one record.
type Tree struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	NodeCount   int
	LastIndexed time.Time
}

// Distance is a cached edit-distance result between the trees identified by
// LeftHash and RightHash, under the recorded cost triple.
type Distance struct {
	ID          int64
	LeftHash    string
	RightHash   string
	InsertCost  int64
	DeleteCost  int64
	RelabelCost int64
	Value       int64
	ComputedAt  time.Time
}
