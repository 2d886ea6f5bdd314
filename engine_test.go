package treedist

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treedist/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func contentHash(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}

const (
	srcA = "package main\n\nfunc a() int { return 1 }\n"
	srcB = "package main\n\nfunc b(x int) int { return x * 2 }\n"
)

func TestEngine_CompareFiles_Identical(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.go", srcA)
	dup := writeTestFile(t, dir, "dup.go", srcA)

	d, err := e.CompareFiles(context.Background(), a, dup)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestEngine_CompareFiles_Symmetric(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.go", srcA)
	b := writeTestFile(t, dir, "b.go", srcB)

	forward, err := e.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)
	backward, err := e.CompareFiles(context.Background(), b, a)
	require.NoError(t, err)

	assert.Positive(t, forward)
	assert.Equal(t, forward, backward)
}

func TestEngine_CompareFiles_CachesResult(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.go", srcA)
	b := writeTestFile(t, dir, "b.go", srcB)

	d, err := e.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)

	cached, ok, err := e.Store().LookupDistance(contentHash(srcA), contentHash(srcB), 1, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d, cached)

	// A second call resolves from the cache and agrees.
	again, err := e.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestEngine_CompareFiles_RecordsTrees(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.go", srcA)
	b := writeTestFile(t, dir, "b.go", srcB)

	_, err := e.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)

	rec, err := e.Store().TreeByPath(a)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "go", rec.Language)
	assert.Equal(t, contentHash(srcA), rec.Hash)
	assert.Positive(t, rec.NodeCount)
}

func TestEngine_CompareFiles_UnsupportedExtension(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.go", srcA)
	txt := writeTestFile(t, dir, "notes.txt", "not source")

	_, err := e.CompareFiles(context.Background(), a, txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestEngine_CompareFiles_LanguageFilter(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithLanguages("python"))
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.go", srcA)
	b := writeTestFile(t, dir, "b.go", srcB)

	_, err := e.CompareFiles(context.Background(), a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "excluded")
}

func TestEngine_Matrix(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()
	paths := []string{
		writeTestFile(t, dir, "a.go", srcA),
		writeTestFile(t, dir, "b.go", srcB),
		writeTestFile(t, dir, "c.go", srcA), // identical to a.go
	}

	m, err := e.Matrix(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, m, 3)

	for i := range m {
		require.Len(t, m[i], 3)
		assert.Zero(t, m[i][i], "diagonal must be zero")
		for j := range m[i] {
			assert.Equal(t, m[i][j], m[j][i], "unit costs give a symmetric matrix")
		}
	}
	assert.Zero(t, m[0][2], "identical content compares at distance zero")
	assert.Positive(t, m[0][1])

	// The matrix agrees with pairwise comparison.
	d, err := e.CompareFiles(context.Background(), paths[0], paths[1])
	require.NoError(t, err)
	assert.Equal(t, d, m[0][1])
}

func TestEngine_Matrix_SerialMatchesParallel(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := []string{
		writeTestFile(t, dir, "a.go", srcA),
		writeTestFile(t, dir, "b.go", srcB),
		writeTestFile(t, dir, "c.go", "package main\n\nvar x = 3\n"),
	}

	parallel := newTestEngine(t)
	serial := newTestEngine(t, WithParallel(false))

	mp, err := parallel.Matrix(context.Background(), paths)
	require.NoError(t, err)
	ms, err := serial.Matrix(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, mp, ms)
}

func TestEngine_MatrixDirectory(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", srcA)
	writeTestFile(t, dir, "b.go", srcB)
	writeTestFile(t, dir, "ignored.txt", "not source")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	writeTestFile(t, filepath.Join(dir, "vendor"), "dep.go", srcA)

	paths, m, err := e.MatrixDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, paths, 2, "txt and vendor/ files are excluded")
	require.Len(t, m, 2)
	assert.Positive(t, m[0][1])
}

func TestEngine_ListFiles_RelativeRoot(t *testing.T) {
	// No t.Parallel: t.Chdir changes the process working directory.
	e := newTestEngine(t)
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", srcA)
	writeTestFile(t, dir, "b.go", srcB)
	prevDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prevDir)) })

	// The walk root itself must never be skipped, even when its entry name
	// is "." or matches a skip rule.
	paths, err := e.ListFiles(".")
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	listed, m, err := e.MatrixDirectory(context.Background(), ".")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Positive(t, m[0][1])
}

func TestEngine_ListFiles_RootNamedLikeSkipDir(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	root := filepath.Join(t.TempDir(), "vendor")
	require.NoError(t, os.MkdirAll(root, 0o755))
	writeTestFile(t, root, "a.go", srcA)

	paths, err := e.ListFiles(root)
	require.NoError(t, err)
	assert.Len(t, paths, 1, "skip rules apply below the root, not to it")
}

func TestEngine_ShapeScript(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeTestFile(t, dir, "shape.risor", `ignore("comment")`)
	a := writeTestFile(t, dir, "a.go", "package main\n\n// a comment\nfunc a() {}\n")
	b := writeTestFile(t, dir, "b.go", "package main\n\nfunc a() {}\n")

	e := newTestEngine(t, WithShapeScript(script))
	d, err := e.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Zero(t, d, "comments are shaped away, trees are identical")

	plain := newTestEngine(t)
	d2, err := plain.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Positive(t, d2, "without shaping the comment contributes a node")
}

func TestEngine_ShapeScriptErrorNotLatched(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := filepath.Join(dir, "shape.risor")
	a := writeTestFile(t, dir, "a.go", "package main\n\n// a comment\nfunc a() {}\n")
	b := writeTestFile(t, dir, "b.go", "package main\n\nfunc a() {}\n")

	e := newTestEngine(t, WithShapeScript(script))

	// The script does not exist yet; the comparison must fail.
	_, err := e.CompareFiles(context.Background(), a, b)
	require.Error(t, err)

	// A failed rules load must not be cached: once the script appears, the
	// same engine recovers and the rules take effect.
	writeTestFile(t, dir, "shape.risor", `ignore("comment")`)
	d, err := e.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestEngine_ShapeChangeInvalidatesCache(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	a := writeTestFile(t, dir, "a.go", srcA)
	b := writeTestFile(t, dir, "b.go", srcB)

	e1, err := New(dbPath)
	require.NoError(t, err)
	_, err = e1.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)

	// Plant a marker row to observe the invalidation.
	_, err = e1.Store().InsertDistance(&store.Distance{
		LeftHash: "marker-left", RightHash: "marker-right",
		InsertCost: 1, DeleteCost: 1, RelabelCost: 1,
		Value: 42, ComputedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	// Reopen with a shaping script: first use clears stale distances.
	script := writeTestFile(t, dir, "shape.risor", `ignore("comment")`)
	e2, err := New(dbPath, WithShapeScript(script))
	require.NoError(t, err)
	defer e2.Close()

	_, err = e2.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)

	_, ok, err := e2.Store().LookupDistance("marker-left", "marker-right", 1, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok, "rule change must drop previously cached distances")
}

func TestEngine_WeightedCosts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.go", srcA)
	b := writeTestFile(t, dir, "b.go", srcB)

	unit := newTestEngine(t)
	doubled := newTestEngine(t, WithCosts(2, 2, 2))

	du, err := unit.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)
	dd, err := doubled.CompareFiles(context.Background(), a, b)
	require.NoError(t, err)

	assert.Equal(t, 2*du, dd, "uniform cost scaling scales the distance")
}
