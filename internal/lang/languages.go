// Package lang maps file extensions to tree-sitter grammars and parses
// source bytes into syntax trees.
package lang

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// byExtension maps file extensions to canonical language names.
var byExtension = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".py":   "python",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".java": "java",
	".php":  "php",
	".rb":   "ruby",
}

// grammars maps canonical language names to tree-sitter grammars.
// Lazily initialized on first use.
var (
	grammars     map[string]*sitter.Language
	grammarsOnce sync.Once
)

func registry() map[string]*sitter.Language {
	grammarsOnce.Do(func() {
		grammars = map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"c":          c.GetLanguage(),
			"cpp":        cpp.GetLanguage(),
			"java":       java.GetLanguage(),
			"php":        php.GetLanguage(),
			"ruby":       ruby.GetLanguage(),
		}
	})
	return grammars
}

// ForFile returns the canonical language name for a file path based on its
// extension. Returns ("", false) for unrecognized extensions.
func ForFile(path string) (string, bool) {
	name, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	return name, ok
}

// Grammar returns the tree-sitter grammar for a canonical language name.
func Grammar(name string) (*sitter.Language, bool) {
	g, ok := registry()[name]
	return g, ok
}

// Parse parses src as the named language and returns the syntax tree.
// The caller owns the tree and must Close it.
func Parse(ctx context.Context, src []byte, name string) (*sitter.Tree, error) {
	g, ok := Grammar(name)
	if !ok {
		return nil, fmt.Errorf("lang: unsupported language %q", name)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("lang: parsing %s source: %w", name, err)
	}
	return tree, nil
}
