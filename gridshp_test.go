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
	"os"
	"path/filepath"
	"testing"

	goshp "github.com/jonas-p/go-shp"
)

func TestWriteGridShapefile(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	cells, err := testGrid(1).Cells()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "emissions_grid.shp")
	if err := WriteGridShapefile(path, cells); err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		if _, err := os.Stat(filepath.Join(dir, "emissions_grid"+ext)); err != nil {
			t.Errorf("missing %s file: %v", ext, err)
		}
	}

	r, err := goshp.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	n := 0
	for r.Next() {
		i, s := r.Shape()
		p, ok := s.(*goshp.Polygon)
		if !ok {
			t.Fatalf("shape %d is a %T", i, s)
		}
		b := p.BBox()
		if b.MinX != 0.5*float64(i%4) || b.MaxY != 0.5*float64(i/4+1) {
			t.Errorf("cell %d has bounds %+v", i, b)
		}
		n++
	}
	if n != 16 {
		t.Errorf("have %d cells, want 16", n)
	}
}
