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
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/chemiss/internal/wrftest"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "chemiss_test")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// testDomain is a 2×2 WRF domain with 1° cells covering
// longitudes and latitudes 0 to 2.
var testDomain = wrftest.Domain{
	Nx: 2, Ny: 2,
	Lon0: 0.5, Lat0: 0.5,
	DLon: 1, DLat: 1,
	DX: 111000, DY: 111000,
	GridID: 1,
	Times:  "2019-01-01_00:00:00",
}

// openDomain writes d to a temporary wrfinput file and reads it back.
func openDomain(t *testing.T, d wrftest.Domain) *WRFInput {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "wrfinput_d01")
	if err := d.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	w, err := OpenWRFInput(path)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// testGrid returns a 4×4 emission grid with 0.5° cells covering
// longitudes and latitudes 0 to 2, with nt hourly time steps. Species
// "E_CO" holds the flattened cell index plus 16 times the time step.
func testGrid(nt int) *EmissionGrid {
	g := &EmissionGrid{
		Lon:  []float64{0.25, 0.75, 1.25, 1.75},
		Lat:  []float64{0.25, 0.75, 1.25, 1.75},
		Data: make(map[string]*sparse.DenseArray),
	}
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	for k := 0; k < nt; k++ {
		g.Times = append(g.Times, start.Add(time.Duration(k)*time.Hour))
	}
	d := sparse.ZerosDense(nt, 4, 4)
	for i := range d.Elements {
		d.Elements[i] = float64(i)
	}
	g.Species = []string{"E_CO"}
	g.Data["E_CO"] = d
	return g
}
