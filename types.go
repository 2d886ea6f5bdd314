package treedist

import "github.com/jward/treedist/internal/store"

// Public type aliases for internal store types used in the Engine API.
// These are Go type aliases (=) — identical to the internal types at compile
// time. External consumers use these names; no conversion is needed.

type Store = store.Store
type Tree = store.Tree
type DistanceRecord = store.Distance
