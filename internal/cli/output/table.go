// Package output renders CLI command results as plain-text tables.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table accumulates rows for a headered listing, e.g. `bytevault ls`.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a data row.
func (t *Table) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Render writes the table to w in a borderless, left-aligned style.
func (t *Table) Render(w io.Writer) {
	table := newWriter(w)
	table.SetHeader(t.headers)
	table.SetAutoFormatHeaders(true)

	for _, row := range t.rows {
		table.Append(row)
	}

	table.Render()
}

// KeyValue prints a two-column key/value listing, e.g. `bytevault stat`.
func KeyValue(w io.Writer, pairs [][2]string) {
	table := newWriter(w)
	table.SetColumnSeparator(":")

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}

	table.Render()
}

// newWriter applies the shared borderless style.
func newWriter(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
