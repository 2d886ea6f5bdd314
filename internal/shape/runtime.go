package shape

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
)

// Runtime loads and evaluates Risor shaping scripts. Scripts are plain
// Risor source that calls the ignore/rename/label_text host functions;
// evaluation happens once and the resulting Rules are reused for every
// tree the Engine builds.
type Runtime struct {
	dir  string
	fsys fs.FS
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS configures the Runtime to load scripts from an fs.FS instead of
// from disk, enabling embedding via go:embed.
func WithFS(fsys fs.FS) Option {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// NewRuntime creates a Runtime that loads scripts relative to dir, or from
// an fs.FS when WithFS is given.
func NewRuntime(dir string, opts ...Option) *Runtime {
	r := &Runtime{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates the shaping script at path and returns the rules it built.
func (r *Runtime) Run(ctx context.Context, path string) (*Rules, error) {
	src, err := r.Load(path)
	if err != nil {
		return nil, err
	}
	return r.RunSource(ctx, src, path)
}

// RunSource evaluates Risor source directly. Useful for testing without
// script files; label names the source in error messages.
func (r *Runtime) RunSource(ctx context.Context, source, label string) (*Rules, error) {
	rules := NewRules()
	opts := []risor.Option{
		risor.WithGlobal("ignore", makeIgnoreFn(rules)),
		risor.WithGlobal("rename", makeRenameFn(rules)),
		risor.WithGlobal("label_text", makeLabelTextFn(rules)),
	}
	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return nil, fmt.Errorf("shape: script %s: %w", label, err)
	}
	return rules, nil
}

// Load reads a shaping script and returns its source code.
func (r *Runtime) Load(path string) (string, error) {
	if r.fsys != nil {
		fsPath := filepath.ToSlash(path)
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("shape: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.dir != "" {
		fullPath = filepath.Join(r.dir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("shape: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// makeIgnoreFn creates the "ignore" host function.
//
// ignore(kind, ...) → count of ignored kinds
func makeIgnoreFn(rules *Rules) *object.Builtin {
	return object.NewBuiltin("ignore", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.NewArgsError("ignore", 1, 0)
		}
		for _, arg := range args {
			s, ok := arg.(*object.String)
			if !ok {
				return object.Errorf("ignore: kind must be a string, got %s", arg.Type())
			}
			rules.ignored[s.Value()] = true
		}
		return object.NewInt(int64(len(rules.ignored)))
	})
}

// makeRenameFn creates the "rename" host function.
//
// rename(kind, label) → count of renamed kinds
func makeRenameFn(rules *Rules) *object.Builtin {
	return object.NewBuiltin("rename", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("rename", 2, len(args))
		}
		kind, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("rename: kind must be a string, got %s", args[0].Type())
		}
		label, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("rename: label must be a string, got %s", args[1].Type())
		}
		rules.renamed[kind.Value()] = label.Value()
		return object.NewInt(int64(len(rules.renamed)))
	})
}

// makeLabelTextFn creates the "label_text" host function.
//
// label_text(kind, ...) → count of text-labeled kinds
//
// Kinds marked here take their label from the node's source text instead of
// the node kind, so identifiers and literals participate in relabel costs.
func makeLabelTextFn(rules *Rules) *object.Builtin {
	return object.NewBuiltin("label_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) == 0 {
			return object.NewArgsError("label_text", 1, 0)
		}
		for _, arg := range args {
			s, ok := arg.(*object.String)
			if !ok {
				return object.Errorf("label_text: kind must be a string, got %s", arg.Type())
			}
			rules.labelText[s.Value()] = true
		}
		return object.NewInt(int64(len(rules.labelText)))
	})
}
