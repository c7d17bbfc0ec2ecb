// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report lays classification results out as an entity by scheme
// table and writes it as text, JSON, YAML, CSV or XLSX.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resultlens/internal/format"
	"github.com/pdiddy/resultlens/pkg/types"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates s. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json, yaml, csv or xlsx)", s)
}

// Column is one scheme in the table.
type Column struct {
	SchemeID int    `json:"scheme_id" yaml:"scheme_id"`
	Name     string `json:"name" yaml:"name"`
}

// Row is one entity. Cells line up with Table.Columns.
type Row struct {
	EntityID int      `json:"entity_id" yaml:"entity_id"`
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Cells    []string `json:"cells" yaml:"cells"`
}

// Table is the rendered result grid.
type Table struct {
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// sheetName is the XLSX worksheet holding the table.
const sheetName = "Results"

// BuildTable renders every result with f in the given mode. Columns are the
// schemes that have results, by id; rows are the given entities plus any
// entity seen in results, by id. An entity with several results for one scheme gets
// them joined with "; ". A missing cell reads "N/A".
func BuildTable(results []types.Result, entities []types.Entity, schemes types.Schemes, f *format.Formatter, mode format.Mode) Table {
	titles := make(map[int]string, len(entities))
	for _, e := range entities {
		titles[e.ID] = e.Title
	}

	byEntity := types.GroupByEntity(results)
	rowIDs := make(map[int]bool, len(byEntity)+len(entities))
	for id := range byEntity {
		rowIDs[id] = true
	}
	for _, e := range entities {
		rowIDs[e.ID] = true
	}

	colIDs := make(map[int]bool)
	for _, r := range results {
		if _, ok := schemes[r.SchemeID]; ok {
			colIDs[r.SchemeID] = true
		}
	}

	var t Table
	cols := sortedKeys(colIDs)
	for _, id := range cols {
		t.Columns = append(t.Columns, Column{SchemeID: id, Name: schemes[id].Name})
	}

	for _, id := range sortedKeys(rowIDs) {
		row := Row{EntityID: id, Title: titles[id], Cells: make([]string, len(cols))}
		for i, sid := range cols {
			var parts []string
			for _, r := range byEntity[id] {
				if r.SchemeID == sid {
					parts = append(parts, f.FormatResult(r, schemes[sid], mode).Text)
				}
			}
			if len(parts) == 0 {
				row.Cells[i] = "N/A"
			} else {
				row.Cells[i] = strings.Join(parts, "; ")
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Header returns the column titles including the leading entity columns.
func (t Table) Header() []string {
	h := []string{"Entity", "Title"}
	for _, c := range t.Columns {
		h = append(h, c.Name)
	}
	return h
}

func (r Row) record() []string {
	return append([]string{strconv.Itoa(r.EntityID), r.Title}, r.Cells...)
}

// Write encodes t to w in the given format.
func Write(w io.Writer, t Table, f Format) error {
	switch f {
	case FormatText, "":
		WriteText(w, t)
		return nil
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatYAML:
		return WriteYAML(w, t)
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	}
	return fmt.Errorf("unknown format %q", f)
}

// WriteText writes t as an aligned table with a row count footer.
func WriteText(w io.Writer, t Table) {
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	header := t.Header()
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range t.Rows {
		for i, c := range r.record() {
			widths[i] = max(widths[i], len(truncate(c, cellWidth)))
		}
	}

	line := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], truncate(c, cellWidth))
		}
		fmt.Fprintln(w)
	}

	line(header)
	total := 0
	for _, wd := range widths {
		total += wd + 2
	}
	fmt.Fprintln(w, strings.Repeat("-", total-2))
	for _, r := range t.Rows {
		line(r.record())
	}
	fmt.Fprintf(w, "\n%d entities, %d schemes\n", len(t.Rows), len(t.Columns))
}

const cellWidth = 40

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " | ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// WriteJSON writes t as indented JSON.
func WriteJSON(w io.Writer, t Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// WriteYAML writes t as YAML.
func WriteYAML(w io.Writer, t Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := setRow(f, 1, t.Header()); err != nil {
		return err
	}
	for i, r := range t.Rows {
		cells := make([]any, 0, len(r.Cells)+2)
		cells = append(cells, r.EntityID, r.Title)
		for _, c := range r.Cells {
			cells = append(cells, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("writing %s: %w", cell, err)
		}
	}
	return nil
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
