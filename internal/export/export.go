// Package export renders computed reports as plain tables in text, CSV, or
// JSON form. Reports are converted to a Table first so the calculators never
// deal with output formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name. Empty means FormatTable.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want table, csv, or json)", s)
}

// Table is a titled grid of string cells plus free-form notes such as
// balance checks. Notes are not part of CSV output.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
	Notes   []string
}

// Write renders t to w in the given format.
func Write(w io.Writer, t Table, f Format) error {
	switch f {
	case FormatTable, "":
		return WriteText(w, t)
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	}
	return fmt.Errorf("unknown format %q", f)
}

// WriteText writes an aligned, human-readable table.
func WriteText(w io.Writer, t Table) error {
	if t.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", t.Title); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	if len(t.Notes) > 0 {
		fmt.Fprintln(w)
		for _, n := range t.Notes {
			if _, err := fmt.Fprintln(w, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteCSV writes the header and rows as CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonTable struct {
	Title string              `json:"title"`
	Rows  []map[string]string `json:"rows"`
	Notes []string            `json:"notes,omitempty"`
}

// WriteJSON writes rows as objects keyed by column name.
func WriteJSON(w io.Writer, t Table) error {
	out := jsonTable{Title: t.Title, Rows: make([]map[string]string, 0, len(t.Rows)), Notes: t.Notes}
	for _, row := range t.Rows {
		obj := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				obj[col] = row[i]
			}
		}
		out.Rows = append(out.Rows, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
