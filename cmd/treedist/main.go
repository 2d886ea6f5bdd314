package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/treedist"
	"github.com/spf13/cobra"
)

var (
	flagDB     string
	flagFormat string

	flagInsertCost  int64
	flagDeleteCost  int64
	flagRelabelCost int64
	flagShapeScript string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "treedist",
	Short:         "Tree edit distance over source files and documents",
	Long:          "Treedist parses files with tree-sitter into labeled trees and computes the Zhang–Shasha edit distance between them, caching results in SQLite.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .treedist/cache.db in the working directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().Int64Var(&flagInsertCost, "insert-cost", 1, "cost of inserting a node")
	rootCmd.PersistentFlags().Int64Var(&flagDeleteCost, "delete-cost", 1, "cost of deleting a node")
	rootCmd.PersistentFlags().Int64Var(&flagRelabelCost, "relabel-cost", 1, "cost of relabeling a node")
	rootCmd.PersistentFlags().StringVar(&flagShapeScript, "shape-script", "", "Risor script controlling how syntax kinds become labels")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(matrixCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <left> <right>",
	Short: "Compute the edit distance between two files",
	Long:  "Parses both files with tree-sitter, builds labeled trees, and prints the minimum-cost edit distance between them.",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

var (
	flagLanguages string
	flagSerial    bool
)

var matrixCmd = &cobra.Command{
	Use:   "matrix [path]",
	Short: "Compute the pairwise distance matrix for a directory",
	Long:  "Walks a directory for supported source files and computes every pairwise edit distance, using a worker pool and the SQLite cache.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMatrix,
}

func init() {
	matrixCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. go,python)")
	matrixCmd.Flags().BoolVar(&flagSerial, "serial", false, "disable the parallel worker pool")
}

func runCompare(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	start := time.Now()
	d, err := engine.CompareFiles(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Compared in %s\n", time.Since(start).Round(time.Millisecond))

	return outputResult(CLICompare{
		Left:        args[0],
		Right:       args[1],
		Distance:    d,
		InsertCost:  flagInsertCost,
		DeleteCost:  flagDeleteCost,
		RelabelCost: flagRelabelCost,
	})
}

func runMatrix(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory not found: %s", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	var opts []treedist.Option
	if flagLanguages != "" {
		langs := strings.Split(flagLanguages, ",")
		for i := range langs {
			langs[i] = strings.TrimSpace(langs[i])
		}
		opts = append(opts, treedist.WithLanguages(langs...))
	}
	if flagSerial {
		opts = append(opts, treedist.WithParallel(false))
	}

	engine, err := newEngine(opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	start := time.Now()
	paths, m, err := engine.MatrixDirectory(context.Background(), dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Compared %d files in %s\n", len(paths), time.Since(start).Round(time.Millisecond))

	return outputResult(CLIMatrix{Paths: paths, Distances: m})
}

// newEngine builds an Engine from the persistent flags, creating the cache
// directory as needed.
func newEngine(extra ...treedist.Option) (*treedist.Engine, error) {
	dbPath := flagDB
	if dbPath == "" {
		dbPath = filepath.Join(".treedist", "cache.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	opts := []treedist.Option{
		treedist.WithCosts(flagInsertCost, flagDeleteCost, flagRelabelCost),
	}
	if flagShapeScript != "" {
		opts = append(opts, treedist.WithShapeScript(flagShapeScript))
	}
	opts = append(opts, extra...)

	engine, err := treedist.New(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}
