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

package chemiss

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tealeg/xlsx"
)

// IsExcel returns whether the file at path is an Excel workbook,
// judging by its extension.
func IsExcel(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".xlsx"
}

// ReadTableExcel reads an emission table from worksheet cfg.Sheet of
// the Excel workbook at path. cfg.Sep is ignored.
func ReadTableExcel(path string, cfg TableConfig) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("chemiss: opening Excel emission table: %v", err)
	}
	var s *xlsx.Sheet
	if cfg.Sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("chemiss: Excel file %s has no sheets", path)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		s, ok = f.Sheet[cfg.Sheet]
		if !ok {
			return nil, fmt.Errorf("chemiss: Excel file %s has no sheet %s", path, cfg.Sheet)
		}
	}

	var records [][]string
	width := -1
	for j := 0; j < s.MaxRow; j++ {
		rec := make([]string, s.MaxCol)
		empty := true
		for i := 0; i < s.MaxCol; i++ {
			rec[i] = strings.TrimSpace(s.Cell(j, i).Value)
			if rec[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if width < 0 {
			// The first row sets the table width.
			width = len(rec)
			for width > 0 && rec[width-1] == "" {
				width--
			}
		}
		for i := width; i < len(rec); i++ {
			if rec[i] != "" {
				return nil, fmt.Errorf("chemiss: row %d of Excel file %s has a value in column %d but the table has %d columns",
					j+1, path, i+1, width)
			}
		}
		records = append(records, rec[:width])
	}
	return newTable(records, cfg)
}
