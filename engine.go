package treedist

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jward/treedist/internal/lang"
	"github.com/jward/treedist/internal/shape"
	"github.com/jward/treedist/internal/store"
)

// Engine orchestrates the treedist pipeline: parse source files with
// tree-sitter, apply shaping rules, build indexes, and compute edit
// distances, caching results in SQLite keyed by content hash and costs.
type Engine struct {
	store       *store.Store
	shaper      *shape.Runtime
	shapeScript string
	shapeFS     fs.FS
	languages   map[string]bool // nil means all languages

	insertCost  int64
	deleteCost  int64
	relabelCost int64

	// useParallel enables the worker-pool matrix pipeline.
	useParallel bool

	rulesMu     sync.Mutex
	rulesLoaded bool
	rules       *shape.Rules
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, l := range languages {
			e.languages[l] = true
		}
	}
}

// WithParallel controls the matrix pipeline. When true (default), Matrix
// computes pairwise distances on a worker pool with a single goroutine
// committing results to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithCosts sets the per-operation costs used by CompareFiles and Matrix.
// All three default to 1. Costs must be non-negative.
func WithCosts(insertCost, deleteCost, relabelCost int64) Option {
	return func(e *Engine) {
		e.insertCost = insertCost
		e.deleteCost = deleteCost
		e.relabelCost = relabelCost
	}
}

// WithShapeScript configures a Risor shaping script that controls how
// syntax-tree node kinds become labels. The script runs once, lazily, on
// first use. When the script's content changes between runs, the cached
// distances are invalidated automatically.
func WithShapeScript(path string) Option {
	return func(e *Engine) {
		e.shapeScript = path
	}
}

// WithShapeFS configures the Engine to load the shaping script from the
// given filesystem instead of from disk. This enables embedding scripts
// via go:embed.
func WithShapeFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.shapeFS = fsys
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("treedist: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("treedist: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		insertCost:  1,
		deleteCost:  1,
		relabelCost: 1,
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	var shaperOpts []shape.Option
	if e.shapeFS != nil {
		shaperOpts = append(shaperOpts, shape.WithFS(e.shapeFS))
	}
	e.shaper = shape.NewRuntime("", shaperOpts...)

	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// loadRules evaluates the shaping script on first use and caches the
// result. Only success is cached: a failed load (missing script, syntax
// error, cancelled context) is reported to the caller and retried on the
// next call, so a transient failure never poisons the Engine. It also
// reconciles the stored shape hash: a changed script invalidates every
// cached distance, since cached results are only valid for the labeled
// trees the old rules produced.
func (e *Engine) loadRules(ctx context.Context) (*shape.Rules, error) {
	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()
	if e.rulesLoaded {
		return e.rules, nil
	}

	var src string
	var rules *shape.Rules
	if e.shapeScript != "" {
		s, err := e.shaper.Load(e.shapeScript)
		if err != nil {
			return nil, err
		}
		src = s
		rules, err = e.shaper.RunSource(ctx, src, e.shapeScript)
		if err != nil {
			return nil, err
		}
	}

	hash := ""
	if src != "" {
		hash = fmt.Sprintf("%x", sha256.Sum256([]byte(src)))
	}
	stored, err := e.store.GetMetadata("shape_hash")
	if err != nil {
		return nil, err
	}
	if stored != hash {
		if err := e.store.ClearDistances(); err != nil {
			return nil, err
		}
		if err := e.store.SetMetadata("shape_hash", hash); err != nil {
			return nil, err
		}
	}

	e.rules = rules
	e.rulesLoaded = true
	return e.rules, nil
}

// indexFile parses a source file, applies shaping rules, builds the Index,
// and upserts the tree's catalog record.
func (e *Engine) indexFile(ctx context.Context, path string) (*Index, *store.Tree, error) {
	language, ok := lang.ForFile(path)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported file type: %s", path)
	}
	if e.languages != nil && !e.languages[language] {
		return nil, nil, fmt.Errorf("language %q excluded by engine configuration", language)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	rules, err := e.loadRules(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load shaping rules: %w", err)
	}

	tree, err := lang.Parse(ctx, content, language)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()

	root := NodeFromSyntax(tree.RootNode(), content, rules)
	if root == nil {
		return nil, nil, fmt.Errorf("shaping rules removed every node of %s", path)
	}
	ix := NewIndex(root)

	rec := &store.Tree{
		Path:        path,
		Language:    language,
		Hash:        hash,
		NodeCount:   ix.Len(),
		LastIndexed: time.Now(),
	}
	if _, err := e.store.UpsertTree(rec); err != nil {
		return nil, nil, fmt.Errorf("record tree: %w", err)
	}
	return ix, rec, nil
}

// CompareFiles returns the edit distance between the labeled trees of two
// source files under the Engine's configured costs, consulting and feeding
// the cache.
func (e *Engine) CompareFiles(ctx context.Context, a, b string) (int64, error) {
	ixA, recA, err := e.indexFile(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("treedist: index %s: %w", a, err)
	}
	ixB, recB, err := e.indexFile(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("treedist: index %s: %w", b, err)
	}

	if d, ok, err := e.cachedDistance(recA.Hash, recB.Hash); err != nil {
		return 0, fmt.Errorf("treedist: cache lookup: %w", err)
	} else if ok {
		return d, nil
	}

	d := ixA.WeightedDistance(ixB, e.insertCost, e.deleteCost, e.relabelCost)
	if err := e.recordDistance(recA.Hash, recB.Hash, d); err != nil {
		return 0, fmt.Errorf("treedist: cache store: %w", err)
	}
	return d, nil
}

// cachedDistance probes the cache for (left, right). When insertion and
// deletion costs are equal the distance is symmetric, so the reversed pair
// is probed as well.
func (e *Engine) cachedDistance(leftHash, rightHash string) (int64, bool, error) {
	d, ok, err := e.store.LookupDistance(leftHash, rightHash, e.insertCost, e.deleteCost, e.relabelCost)
	if err != nil || ok {
		return d, ok, err
	}
	if e.insertCost == e.deleteCost {
		return e.store.LookupDistance(rightHash, leftHash, e.insertCost, e.deleteCost, e.relabelCost)
	}
	return 0, false, nil
}

func (e *Engine) recordDistance(leftHash, rightHash string, d int64) error {
	_, err := e.store.InsertDistance(&store.Distance{
		LeftHash:    leftHash,
		RightHash:   rightHash,
		InsertCost:  e.insertCost,
		DeleteCost:  e.deleteCost,
		RelabelCost: e.relabelCost,
		Value:       d,
		ComputedAt:  time.Now(),
	})
	return err
}

// skipDirs lists directories excluded from directory walks.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// ListFiles walks root and returns all files with supported extensions,
// honoring the Engine's language filter. Hidden directories, node_modules,
// vendor, and __pycache__ are skipped.
func (e *Engine) ListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// The walk root is visited first with its own name ("." for
			// the default invocation); the skip rules apply only below it.
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		language, ok := lang.ForFile(path)
		if !ok {
			return nil
		}
		if e.languages != nil && !e.languages[language] {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("treedist: walk directory: %w", err)
	}
	return paths, nil
}

// MatrixDirectory walks root for supported files and computes their full
// pairwise distance matrix. Returns the discovered paths in walk order
// together with the matrix.
func (e *Engine) MatrixDirectory(ctx context.Context, root string) ([]string, [][]int64, error) {
	paths, err := e.ListFiles(root)
	if err != nil {
		return nil, nil, err
	}
	m, err := e.Matrix(ctx, paths)
	if err != nil {
		return nil, nil, err
	}
	return paths, m, nil
}
