package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
)

// CLICompare is the output of the compare command.
type CLICompare struct {
	Left        string `json:"left"`
	Right       string `json:"right"`
	Distance    int64  `json:"distance"`
	InsertCost  int64  `json:"insert_cost"`
	DeleteCost  int64  `json:"delete_cost"`
	RelabelCost int64  `json:"relabel_cost"`
}

// CLIMatrix is the output of the matrix command.
type CLIMatrix struct {
	Paths     []string  `json:"paths"`
	Distances [][]int64 `json:"distances"`
}

// outputResult writes a result to stdout in the selected --format.
func outputResult(result any) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	switch v := result.(type) {
	case CLICompare:
		formatCompareText(os.Stdout, v)
	case CLIMatrix:
		formatMatrixText(os.Stdout, v)
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatCompareText prints a single distance as a readable line.
func formatCompareText(w io.Writer, r CLICompare) {
	fmt.Fprintf(w, "%s vs %s: %d\n", r.Left, r.Right, r.Distance)
}

// formatMatrixText prints the matrix as aligned columns, with file base
// names as row and column headers.
func formatMatrixText(w io.Writer, r CLIMatrix) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(r.Paths))
	for i, p := range r.Paths {
		headers[i] = filepath.Base(p)
	}
	fmt.Fprintf(tw, "\t%s\n", strings.Join(headers, "\t"))

	for i, row := range r.Distances {
		cells := make([]string, len(row))
		for j, d := range row {
			cells[j] = fmt.Sprintf("%d", d)
		}
		fmt.Fprintf(tw, "%s\t%s\n", headers[i], strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
