package treedist

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// pair identifies one off-diagonal cell of the distance matrix.
type pair struct {
	i, j int
}

// Matrix computes the full pairwise distance matrix for paths using a
// three-phase pipeline:
//
//	Phase A (serial):  parse and index every file, resolve cache hits.
//	Phase B (parallel): compute remaining distances on a worker pool.
//	Phase C (serial):  fill the matrix and commit results to SQLite.
//
// The diagonal is always zero. When insertion and deletion costs are equal
// the matrix is symmetric and only the upper triangle is computed. With
// WithParallel(false), Phase B runs inline on the calling goroutine.
func (e *Engine) Matrix(ctx context.Context, paths []string) ([][]int64, error) {
	// ---- Phase A: serial indexing and cache probes ----
	n := len(paths)
	indexes := make([]*Index, n)
	hashes := make([]string, n)
	for i, p := range paths {
		ix, rec, err := e.indexFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("treedist: index %s: %w", p, err)
		}
		indexes[i] = ix
		hashes[i] = rec.Hash
	}

	m := make([][]int64, n)
	for i := range m {
		m[i] = make([]int64, n)
	}

	symmetric := e.insertCost == e.deleteCost

	var work []pair
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || (symmetric && j < i) {
				continue
			}
			d, ok, err := e.cachedDistance(hashes[i], hashes[j])
			if err != nil {
				return nil, fmt.Errorf("treedist: cache lookup: %w", err)
			}
			if ok {
				m[i][j] = d
				if symmetric {
					m[j][i] = d
				}
				continue
			}
			work = append(work, pair{i, j})
		}
	}

	if len(work) == 0 {
		return m, nil
	}

	if !e.useParallel {
		for _, p := range work {
			d := indexes[p.i].WeightedDistance(indexes[p.j], e.insertCost, e.deleteCost, e.relabelCost)
			m[p.i][p.j] = d
			if symmetric {
				m[p.j][p.i] = d
			}
			if err := e.recordDistance(hashes[p.i], hashes[p.j], d); err != nil {
				return nil, fmt.Errorf("treedist: cache store: %w", err)
			}
		}
		return m, nil
	}

	// ---- Phase B: parallel distance computation ----
	numWorkers := min(runtime.NumCPU(), len(work))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan pair, len(work))
	for _, p := range work {
		workCh <- p
	}
	close(workCh)

	type result struct {
		pair pair
		d    int64
	}
	resultCh := make(chan result, len(work))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Indexes are immutable, so workers share them freely; only
			// the matrix and the store need the serial commit phase.
			for p := range workCh {
				d := indexes[p.i].WeightedDistance(indexes[p.j], e.insertCost, e.deleteCost, e.relabelCost)
				resultCh <- result{pair: p, d: d}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: serial commit ----
	var errs []error
	for res := range resultCh {
		m[res.pair.i][res.pair.j] = res.d
		if symmetric {
			m[res.pair.j][res.pair.i] = res.d
		}
		if err := e.recordDistance(hashes[res.pair.i], hashes[res.pair.j], res.d); err != nil {
			errs = append(errs, fmt.Errorf("cache %s vs %s: %w", paths[res.pair.i], paths[res.pair.j], err))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("treedist: matrix had %d error(s): %w", len(errs), errs[0])
	}
	return m, nil
}
