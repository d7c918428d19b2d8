// Copyright 2025 GSU Analytics

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package table renders tabular data as aligned text or CSV. It is the output
// layer of the CLI tools: portal result rows are assembled into a Table with
// FromMaps, typed rows implement the Row interface directly.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Row interface that a table row representation must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Table container.
//
// A typical use:
//   type SchoolRow struct {
//     Name       string
//     Enrollment int
//   }
//
//   func (r SchoolRow) CSV() []string {
//     return []string{r.Name, fmt.Sprintf("%d", r.Enrollment)}
//   }
//   t := NewTable("school_name", "enrollment")
//   t.AddRow(SchoolRow{"Albertville High School", 1520})
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table instance with optional column headers.  It is
// expected that, when present, the number of column headers is the same as the
// number of elements in each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Cell of a row, a union of a string or a number.
type Cell struct {
	IsNumber bool
	number   float64
	string   string
}

// String creates a string-valued Cell.
func String(s string) Cell {
	return Cell{string: s}
}

// Number creates a number-valued Cell.
func Number(n float64) Cell {
	return Cell{IsNumber: true, number: n}
}

// String representation of the Cell. Numbers print without an exponent and
// without trailing zeros, the way they appear in the portal's JSON.
func (c Cell) String() string {
	if c.IsNumber {
		return strconv.FormatFloat(c.number, 'f', -1, 64)
	}
	return c.string
}

// Cells is a table row of plain cells.
type Cells []Cell

var _ Row = Cells{}

// CSV implements the Row interface.
func (r Cells) CSV() []string {
	res := make([]string, len(r))
	for i, c := range r {
		res[i] = c.String()
	}
	return res
}

// cellOf converts a raw JSON value to a Cell. A null renders as an empty
// string.
func cellOf(v interface{}) Cell {
	switch t := v.(type) {
	case nil:
		return String("")
	case float64:
		return Number(t)
	case string:
		return String(t)
	case bool:
		if t {
			return String("true")
		}
		return String("false")
	}
	return String(fmt.Sprintf("%v", v))
}

// FromMaps assembles a table from rows of column-to-value maps, such as the
// results of portal queries. The columns are the sorted union of all row
// keys; a row missing a column renders it as an empty string.
func FromMaps(rows []map[string]interface{}) *Table {
	colSet := map[string]bool{}
	for _, r := range rows {
		for k := range r {
			colSet[k] = true
		}
	}
	columns := maps.Keys(colSet)
	slices.Sort(columns)
	t := NewTable(columns...)
	for _, r := range rows {
		cells := make(Cells, len(columns))
		for i, col := range columns {
			cells[i] = cellOf(r[col])
		}
		t.AddRow(cells)
	}
	return t
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

// WriteCSV writes the entire table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader && len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for i, r := range t.Rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := cw.Write(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the table as a text formatted for ease of reading.
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	var widths []int
	update := func(row []string) error {
		if len(row) == 0 {
			return errors.Reason("row size = 0")
		}
		if len(widths) == 0 {
			widths = make([]int, len(row))
		}
		if len(row) != len(widths) {
			return errors.Reason("row size [%d] != expected size [%d]",
				len(row), len(widths))
		}
		for i := range widths {
			if widths[i] < len(row[i]) {
				widths[i] = len(row[i])
				if p.MaxColWidth > 0 && widths[i] > p.MaxColWidth {
					widths[i] = p.MaxColWidth
				}
			}
		}
		return nil
	}

	write := func(row []string) error {
		trimmed := make([]string, len(row))
		for i, s := range row {
			trimmed[i] = s
			if len([]rune(s)) > widths[i] {
				r := []rune(s)[:widths[i]-2]
				trimmed[i] = string(r) + ".."
			}
			trimmed[i] = fmt.Sprintf("%[2]*[1]s", trimmed[i], widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(trimmed, " | "))
		return err
	}

	dashes := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('-')
		}
		return string(b)
	}

	dashedRow := func() []string {
		row := make([]string, len(widths))
		for i, w := range widths {
			row[i] = dashes(w)
		}
		return row
	}

	if !p.NoHeader && len(t.Header) > 0 {
		if err := update(t.Header); err != nil {
			return errors.Annotate(err, "failed to update header widths")
		}
	}
	for i, r := range t.Rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := update(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to update row widths")
		}
	}

	if !p.NoHeader && len(t.Header) > 0 {
		if err := write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
		if err := write(dashedRow()); err != nil {
			return errors.Annotate(err, "failed to write header separator")
		}
	}
	for i, r := range t.Rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := write(r.CSV()); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	return nil
}
