/*
Copyright © 2019 the chemiss authors.
This file is part of chemiss.

chemiss is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

chemiss is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with chemiss.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package chemiss converts gridded local emission inventories into
// WRF-Chem emission input (wrfchemi) files.
package chemiss

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TableConfig specifies how an emission table is laid out.
type TableConfig struct {
	// Sep is the field separator. " ", "\t" and "\s+" split fields
	// on runs of whitespace; any other single character is used as a
	// delimiter.
	Sep string

	// Header specifies whether the first line of the table holds
	// the column names.
	Header bool

	// ColNames are the column names. They are required when Header
	// is false and override the header line when Header is true.
	ColNames []string

	// Sheet is the name of the worksheet to read from Excel
	// workbooks. The first sheet is used if it is empty.
	Sheet string
}

// Table holds an emission table. The first three columns of the
// input are the point index, longitude and latitude, and all
// following columns are species emission rates.
type Table struct {
	Columns []string
	Lon     []float64
	Lat     []float64
	Values  map[string][]float64
}

// Species returns the names of the species columns in file order.
func (t *Table) Species() []string {
	if len(t.Columns) < 3 {
		return nil
	}
	return t.Columns[3:]
}

// Len returns the number of data rows in the table.
func (t *Table) Len() int { return len(t.Lon) }

func isWhitespaceSep(sep string) bool {
	switch sep {
	case "", " ", "\t", `\s+`, `\t`:
		return true
	}
	return false
}

// ReadTable reads a delimited emission table from r.
func ReadTable(r io.Reader, cfg TableConfig) (*Table, error) {
	records, err := readRecords(r, cfg.Sep)
	if err != nil {
		return nil, fmt.Errorf("chemiss: reading emission table: %v", err)
	}
	return newTable(records, cfg)
}

func readRecords(r io.Reader, sep string) ([][]string, error) {
	if isWhitespaceSep(sep) {
		var records [][]string
		s := bufio.NewScanner(r)
		s.Buffer(make([]byte, 1024*1024), 64*1024*1024)
		for s.Scan() {
			line := strings.TrimSpace(s.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			records = append(records, strings.Fields(line))
		}
		return records, s.Err()
	}
	if len([]rune(sep)) != 1 {
		return nil, fmt.Errorf("separator %q must be a single character or whitespace", sep)
	}
	cr := csv.NewReader(r)
	cr.Comma = []rune(sep)[0]
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// newTable converts raw records into a Table.
func newTable(records [][]string, cfg TableConfig) (*Table, error) {
	cols := cfg.ColNames
	if cfg.Header {
		if len(records) == 0 {
			return nil, fmt.Errorf("chemiss: emission table is empty")
		}
		if len(cols) == 0 {
			cols = make([]string, len(records[0]))
			for i, c := range records[0] {
				cols[i] = strings.TrimSpace(c)
			}
		}
		records = records[1:]
	} else if len(cols) == 0 {
		return nil, fmt.Errorf("chemiss: emission table has no header line and no column names are specified")
	}
	if len(cols) < 4 {
		return nil, fmt.Errorf("chemiss: emission table needs index, lon, lat and at least one species column but has columns %v", cols)
	}
	seen := make(map[string]bool)
	for _, c := range cols[3:] {
		if seen[c] {
			return nil, fmt.Errorf("chemiss: emission table has duplicate species column %s", c)
		}
		seen[c] = true
	}

	t := &Table{
		Columns: cols,
		Lon:     make([]float64, 0, len(records)),
		Lat:     make([]float64, 0, len(records)),
		Values:  make(map[string][]float64),
	}
	for _, sp := range t.Species() {
		t.Values[sp] = make([]float64, 0, len(records))
	}
	for i, rec := range records {
		line := i + 1
		if cfg.Header {
			line++
		}
		if len(rec) != len(cols) {
			return nil, fmt.Errorf("chemiss: emission table line %d has %d fields but there are %d columns", line, len(rec), len(cols))
		}
		lon, err := parseField(rec[1])
		if err != nil {
			return nil, fmt.Errorf("chemiss: emission table line %d, column %s: %v", line, cols[1], err)
		}
		lat, err := parseField(rec[2])
		if err != nil {
			return nil, fmt.Errorf("chemiss: emission table line %d, column %s: %v", line, cols[2], err)
		}
		t.Lon = append(t.Lon, lon)
		t.Lat = append(t.Lat, lat)
		for j, sp := range cols[3:] {
			v, err := parseField(rec[j+3])
			if err != nil {
				return nil, fmt.Errorf("chemiss: emission table line %d, column %s: %v", line, sp, err)
			}
			t.Values[sp] = append(t.Values[sp], v)
		}
	}
	return t, nil
}

func parseField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
